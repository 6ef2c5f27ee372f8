package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// Editors and downloaders touch data file several times in a row
	reloadDebounce  = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP routing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			logger := newLogger()
			if !verbose && !cfg.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			engine := cfg.NewEngine(store, logger)
			logger.Info("engine ready", "engine", engine.String())
			srv := newServer(cfg, store, engine, logger)

			go func() {
				if err := engine.ReloadAndWarm(ctx, cfg.WarmRoutes); err != nil {
					logger.Warn("cache warm-up interrupted", "error", err)
				}
			}()
			if cfg.WatchData && cfg.DataFile != "" {
				go func() {
					if err := srv.watchDataFile(ctx); err != nil {
						logger.Error("data file watcher stopped", "error", err)
					}
				}()
			}

			httpServer := &http.Server{
				Addr:    cfg.Listen,
				Handler: srv.router(),
			}
			errs := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Listen)
				errs <- httpServer.ListenAndServe()
			}()
			select {
			case err := <-errs:
				if !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "Can't serve HTTP")
				}
				return nil
			case <-ctx.Done():
			}
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides configuration")
	return cmd
}

// watchDataFile reloads the graph whenever data file is rewritten.
// Directory is watched since files are usually replaced by rename
func (srv *server) watchDataFile(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "Can't create watcher")
	}
	defer watcher.Close()
	target := filepath.Clean(srv.cfg.DataFile)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "Can't watch %s", target)
	}
	srv.logger.Info("watching data file", "file", target)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			srv.logger.Debug("data file changed", "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if err := srv.reload(ctx); err != nil {
					srv.logger.Error("reload after data change failed", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			srv.logger.Warn("watcher error", "error", err)
		}
	}
}

// logRequests is a small gin middleware writing one line per request
func logRequests(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(st),
		)
	}
}
