package main

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/orbitarc/internal/tle"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		url       string
		extraURLs []string
		label     string
		cacheDir  string
		maxFiles  int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download TLE text into the local archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadTLEConfig(a.logger)
			if cmd.Flags().Changed("url") {
				cfg.SourceURL = url
			}
			if cmd.Flags().Changed("extra-url") {
				cfg.ExtraURLs = extraURLs
			}
			if cmd.Flags().Changed("cache-dir") {
				cfg.CacheDir = cacheDir
			}
			if cmd.Flags().Changed("max-files") {
				cfg.MaxFiles = maxFiles
			}

			path, h, err := fetchToArchive(cmd.Context(), a, cfg, label)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			a.logger.Info("TLE archived",
				"label", label,
				"path", path,
				"records", len(h.Valid()),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "TLE source URL (default: $ORBITARC_TLE_SOURCE_URL)")
	cmd.Flags().StringArrayVar(&extraURLs, "extra-url", nil, "additional best-effort source URL (repeatable)")
	cmd.Flags().StringVar(&label, "label", "catalog", "archive label")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "archive directory (default: $ORBITARC_TLE_CACHE_DIR)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "archived files kept per label")
	return cmd
}

// fetchToArchive downloads, checks that the text holds at least one valid
// record, then archives it.
func fetchToArchive(ctx context.Context, a *app, cfg tleConfig, label string) (string, *tle.History, error) {
	fetcher := tle.NewFetcher(cfg.SourceURL, a.logger, cfg.ExtraURLs...)
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return "", nil, err
	}

	h, err := tle.ParseHistory(bytes.NewReader(data), label, a.logger)
	if err != nil {
		return "", nil, fmt.Errorf("fetched data from %s: %w", fetcher.SourceURL(), err)
	}

	archive := tle.NewArchive(cfg.CacheDir, cfg.MaxFiles)
	path, err := archive.Write(label, data, time.Now())
	if err != nil {
		return "", nil, err
	}
	return path, h, nil
}
