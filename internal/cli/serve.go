package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oceanbase/episodic-go/internal/server"
	"github.com/oceanbase/episodic-go/pkg/core"
	"github.com/oceanbase/episodic-go/pkg/scenario"
)

var (
	serveAddr  string
	serveWatch bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve SCENARIO",
		Short: "Replay a scenario, then serve its memory and metrics over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":9464", "Listen address")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Replay again whenever the scenario file changes")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	path := args[0]
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	sess, err := newSession(sc.Entity)
	if err != nil {
		return err
	}
	if _, err := scenario.Run(sess.client, sc); err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	logger, err := core.NewLogger(sess.config.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	api := server.New(sess.client, sess.registry, horizon(sc), logger)
	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWatch {
		go func() {
			err := watchScenario(ctx, path, logger, func() error {
				return replay(sess, api, path)
			})
			if err != nil {
				logger.Error("scenario watch stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving episodic memory",
			zap.String("addr", serveAddr),
			zap.String("entity", sc.Entity),
			zap.Bool("watch", serveWatch))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// replay loads the scenario again into a fresh client and hands it to api.
func replay(sess *session, api *server.Server, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if err := sess.reset(sc.Entity); err != nil {
		return err
	}
	if _, err := scenario.Run(sess.client, sc); err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}
	api.Replace(sess.client, horizon(sc))
	return nil
}

// watchScenario calls reload whenever the file at path is written or
// recreated, until ctx is done.
func watchScenario(ctx context.Context, path string, logger *zap.Logger, reload func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors often save by renaming a new file over the old one, which
	// drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := reload(); err != nil {
				logger.Warn("scenario reload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("scenario reloaded", zap.String("path", path))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("scenario watch error", zap.Error(err))
		}
	}
}

func horizon(sc *scenario.Scenario) time.Duration {
	return time.Duration(sc.Days) * 24 * time.Hour
}
