package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oceanbase/episodic-go/pkg/scenario"
)

func init() {
	cmd := &cobra.Command{
		Use:   "simulate SCENARIO",
		Short: "Replay a scenario file and print the resulting memory state",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}

	RootCmd.AddCommand(cmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	sess, err := newSession(sc.Entity)
	if err != nil {
		return err
	}

	result, err := scenario.Run(sess.client, sc)
	if err != nil {
		return fmt.Errorf("replay %s: %w", args[0], err)
	}
	return printResult(cmd.OutOrStdout(), result)
}

func printResult(w io.Writer, result *scenario.Result) error {
	if formatFlag == "text" {
		l := result.Snapshot.Layers
		fmt.Fprintf(w, "entity:    %s\n", result.Entity)
		fmt.Fprintf(w, "horizon:   %d days\n", result.Days)
		fmt.Fprintf(w, "captured:  %d (%d trauma-boosted)\n", result.Captured, result.Boosted)
		fmt.Fprintf(w, "promoted:  %d\n", result.Promoted)
		fmt.Fprintf(w, "purged:    %d\n", result.Purged)
		fmt.Fprintf(w, "evicted:   %d\n", result.Evicted)
		fmt.Fprintf(w, "tiers:     Immediate %d | ShortTerm %d | LongTerm %d | Legacy %d\n",
			l.Immediate, l.ShortTerm, l.LongTerm, l.Legacy)
		fmt.Fprintf(w, "mood:      valence %.3f arousal %.3f dominance %.3f\n",
			result.Mood.Valence, result.Mood.Arousal, result.Mood.Dominance)
		return nil
	}

	var (
		b   []byte
		err error
	)
	if formatFlag == "yaml" {
		b, err = yaml.Marshal(result)
	} else {
		b, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
