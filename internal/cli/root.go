// Package cli implements the episodic CLI commands.
package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/oceanbase/episodic-go/pkg/core"
	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

var (
	configPath string
	logLevel   string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "episodic",
	Short: "Episodic memory for life-course simulations",
	Long: "Replays scripted life courses through a four-tier episodic memory " +
		"(Immediate, ShortTerm, LongTerm, Legacy) and inspects the result.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .yml or .json; default: EPISODIC_* environment)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
}

// loadConfig reads the configuration named by --config, or the environment
// when no file is given, and applies flag overrides.
func loadConfig() (*core.Config, error) {
	var (
		cfg *core.Config
		err error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case "":
		if configPath != "" {
			return nil, fmt.Errorf("config file %q has no extension", configPath)
		}
		cfg, err = core.LoadConfigFromEnv()
	case ".yaml", ".yml":
		cfg, err = core.LoadConfigFromYAML(configPath)
	case ".json":
		cfg, err = core.LoadConfigFromJSON(configPath)
	default:
		return nil, fmt.Errorf("unsupported config file %q", configPath)
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, cfg.Validate()
}

// session is a client wired to a private metrics registry.
type session struct {
	config   *core.Config
	client   *core.Client
	recorder *metrics.Recorder
	registry *prometheus.Registry
}

func newSession(entity string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(cfg.Metrics.Namespace)
	if err := recorder.Register(registry); err != nil {
		return nil, err
	}

	sess := &session{config: cfg, recorder: recorder, registry: registry}
	if err := sess.reset(entity); err != nil {
		return nil, err
	}
	return sess, nil
}

// reset replaces the session client with an empty one for entity. The
// recorder carries over, so metrics keep accumulating.
func (s *session) reset(entity string) error {
	client, err := core.NewClient(memory.EntityID(entity), s.config, core.WithRecorder(s.recorder))
	if err != nil {
		return err
	}
	s.client = client
	return nil
}
