package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openquant/helix/internal/archive"
	"github.com/openquant/helix/internal/config"
	"github.com/openquant/helix/internal/journal"
	"github.com/openquant/helix/internal/logger"
	marketkite "github.com/openquant/helix/internal/marketdata/kite"
)

var exportInstruments bool

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the order journal to the archive store as CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportInstruments, "instruments", false, "also export the instrument master")
	rootCmd.AddCommand(exportCmd)
}

func newArchiveStore(cfg *config.Config) (archive.Store, error) {
	switch cfg.Archive.Type {
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return archive.NewLocalFS(cfg.Archive.Path)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.Must(logger.Options{Development: debug})
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	store, err := newArchiveStore(cfg)
	if err != nil {
		return fmt.Errorf("opening archive store: %w", err)
	}

	events, err := journal.ReadFile(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	ctx := context.Background()
	day := time.Now().Format("2006-01-02")

	path := fmt.Sprintf("journal/%s.csv", day)
	if err := archive.ExportEvents(ctx, store, path, events); err != nil {
		return fmt.Errorf("exporting journal: %w", err)
	}
	log.Info("journal exported",
		zap.String("path", path),
		zap.Int("events", len(events)),
	)

	if exportInstruments {
		provider := marketkite.New(cfg.Credentials.APIKey, cfg.Credentials.AccessToken)
		if err := provider.LoadInstruments(ctx); err != nil {
			return fmt.Errorf("loading instrument master: %w", err)
		}

		path := fmt.Sprintf("instruments/%s.csv", day)
		if err := archive.ExportInstruments(ctx, store, path, provider.Instruments()); err != nil {
			return fmt.Errorf("exporting instruments: %w", err)
		}
		log.Info("instrument master exported",
			zap.String("path", path),
			zap.Int("instruments", provider.InstrumentCount()),
		)
	}

	return nil
}
