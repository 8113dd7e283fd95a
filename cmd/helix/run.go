package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openquant/helix/internal/config"
	"github.com/openquant/helix/internal/engine"
	gatewaykite "github.com/openquant/helix/internal/gateway/kite"
	"github.com/openquant/helix/internal/journal"
	"github.com/openquant/helix/internal/logger"
	marketkite "github.com/openquant/helix/internal/marketdata/kite"
	"github.com/openquant/helix/internal/metrics"
	"github.com/openquant/helix/internal/position"
	"github.com/openquant/helix/internal/strategy/emapattern"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the trading engine",
	RunE:  runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		cfg := config.Defaults()
		return cfg, cfg.Validate()
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func runEngine(cmd *cobra.Command, args []string) error {
	log := logger.Must(logger.Options{Development: debug})
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	settings := cfg.Settings()
	symbols := make([]string, len(settings))
	for i, s := range settings {
		symbols[i] = s.Symbol
	}

	log.Info("starting helix",
		zap.Strings("symbols", symbols),
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
	)

	// Market data and order gateway share the same credentials.
	provider := marketkite.New(cfg.Credentials.APIKey, cfg.Credentials.AccessToken)
	gw := gatewaykite.New(cfg.Credentials.APIKey, cfg.Credentials.AccessToken)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := provider.LoadInstruments(ctx); err != nil {
		return fmt.Errorf("loading instrument master: %w", err)
	}
	log.Info("instrument master loaded", zap.Int("instruments", provider.InstrumentCount()))

	matched, missing := provider.ResolveSymbols(symbols)
	if len(missing) > 0 {
		log.Warn("symbols not found on exchange, skipping",
			zap.Strings("missing", missing))
	}
	if len(matched) == 0 {
		return fmt.Errorf("no configured symbol resolves to an exchange instrument")
	}
	matchedSet := make(map[string]struct{}, len(matched))
	for _, s := range matched {
		matchedSet[s] = struct{}{}
	}
	resolved := settings[:0]
	for _, s := range settings {
		if _, ok := matchedSet[s.Symbol]; ok {
			resolved = append(resolved, s)
		}
	}

	jnl := journal.NewFile(journal.FileConfig{
		Path:       cfg.Journal.Path,
		MaxSizeMB:  cfg.Journal.MaxSizeMB,
		MaxBackups: cfg.Journal.MaxBackups,
		MaxAgeDays: cfg.Journal.MaxAgeDays,
	})
	defer jnl.Close()

	session, err := engine.NewSession(cfg.Session.Open, cfg.Session.Close, cfg.Session.Timezone)
	if err != nil {
		return fmt.Errorf("building market session: %w", err)
	}

	reg := metrics.NewRegistry()
	manager := position.NewManager(gw, jnl, log.Named("position"))

	eng := engine.New(engine.Options{
		Config: engine.Config{
			TickInterval:   cfg.Engine.TickInterval,
			IdleInterval:   cfg.Engine.IdleInterval,
			PerSymbolDelay: cfg.Engine.PerSymbolDelay,
			LookbackDays:   cfg.Engine.LookbackDays,
		},
		Session:   session,
		Settings:  resolved,
		Provider:  provider,
		Strategy:  emapattern.New(),
		Positions: manager,
		Metrics:   reg,
		Logger:    log.Named("engine"),
	})

	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg, log.Named("metrics"))
		go func() {
			if err := metricsSrv.Start(); err != nil {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("engine stopped", zap.Error(err))
		}
	}

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics shutdown failed", zap.Error(err))
		}
	}

	log.Info("helix stopped")
	return nil
}
