package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/orbitarc/internal/api"
	"github.com/star/orbitarc/internal/health"
	"github.com/star/orbitarc/internal/metrics"
	"github.com/star/orbitarc/internal/pipeline"
	"github.com/star/orbitarc/internal/propagation"
	"github.com/star/orbitarc/internal/tle"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		sf       samplingFlags
		addr     string
		files    []string
		archived []string
		fetch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenes for preloaded and uploaded TLE files over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger

			httpCfg, err := loadHTTPConfig(logger)
			if err != nil {
				return fmt.Errorf("invalid http configuration: %w", err)
			}
			if cmd.Flags().Changed("addr") {
				httpCfg.Addr = addr
			}

			cfg := loadSamplingConfig(logger)
			if err := sf.apply(cmd, &cfg); err != nil {
				return err
			}
			tleCfg := loadTLEConfig(logger)

			store := tle.NewStore()
			var ready health.Readiness
			pipe := pipeline.New(propagation.SGP4Initializer, cfg, logger)
			srv := api.NewServer(httpCfg, logger, store, pipe, &ready)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for _, arg := range files {
				label, path, err := parseSource(arg)
				if err != nil {
					return err
				}
				if err := loadFile(ctx, store, pipe, label, path); err != nil {
					return err
				}
			}

			archive := tle.NewArchive(tleCfg.CacheDir, tleCfg.MaxFiles)
			for _, label := range archived {
				data, ts, err := archive.LoadLatest(label)
				if err != nil {
					logger.Warn("no archived TLE data", "label", label, "error", err)
					continue
				}
				h, err := pipe.LoadHistory(ctx, label, bytes.NewReader(data))
				if err != nil {
					logger.Warn("failed to parse archived TLE data", "label", label, "error", err)
					continue
				}
				store.Put(h)
				logger.Info("loaded TLE data from archive", "label", label, "archived_at", ts.Format(time.RFC3339))
			}

			if fetch {
				_, h, err := fetchToArchive(ctx, a, tleCfg, "catalog")
				if err != nil {
					logger.Warn("initial TLE fetch failed", "error", err)
				} else {
					store.Put(h)
				}
			}

			var loaded int
			if ds := store.Get(); ds != nil {
				loaded = len(ds.Histories)
			}
			metrics.SetObjectsLoaded(loaded)
			ready.SetReady(true)

			go func() {
				ticker := time.NewTicker(10 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if age := store.AgeSeconds(); age >= 0 {
							metrics.SetDatasetAge(age)
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			go func() {
				logger.Info("starting server",
					"addr", httpCfg.Addr,
					"auth_enabled", httpCfg.Auth.Enabled,
					"objects", loaded,
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server listen error", "error", err)
					os.Exit(1)
				}
			}()

			<-ctx.Done()
			logger.Info("shutting down server...")
			ready.SetReady(false)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}

			logger.Info("server stopped")
			return nil
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default: $ORBITARC_HTTP_ADDR)")
	cmd.Flags().StringArrayVar(&files, "tle", nil, "preload LABEL=PATH (repeatable)")
	cmd.Flags().StringArrayVar(&archived, "archived", nil, "preload the newest archived file for LABEL (repeatable)")
	cmd.Flags().BoolVar(&fetch, "fetch", false, "fetch $ORBITARC_TLE_SOURCE_URL at startup into the archive and store as \"catalog\"")
	return cmd
}

func loadFile(ctx context.Context, store *tle.Store, pipe *pipeline.Pipeline, label, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", label, err)
	}
	defer f.Close()

	h, err := pipe.LoadHistory(ctx, label, f)
	if err != nil {
		return err
	}
	store.Put(h)
	return nil
}
