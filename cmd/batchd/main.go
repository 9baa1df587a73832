package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/inferlab/microbatch/internal/gateway"
	"github.com/inferlab/microbatch/pkg/log"
)

const helpDescription = `
Batching inference gateway: accepts single-input prediction requests over
HTTP and forwards them to a model runtime in bounded-size, bounded-latency
batches.

Highlights:
  - Micro-batches requests to amortize per-call inference overhead while
    keeping a hard per-request latency bound.
  - Resolves the serving endpoint directly or through a model registry;
    configure via file, env, or flags.
  - Optionally reports per-batch serving metrics to a tracking server.
`

var exampleUsage = strings.TrimSpace(`
  batchd --model sentiment --model-url http://localhost:9000
  batchd --config $HOME/.batchd/config.toml --max-wait 50ms
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := gateway.DefaultConfig()
	var cfgPath string

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	logger := log.NewZerologAdapterWithLogger(zl)

	root := &cobra.Command{
		Use:     "batchd",
		Short:   "Batching inference gateway",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.batchd/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = gateway.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && gateway.FileExists(cfgFile) {
				fc, err := gateway.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := gateway.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (BATCHD_*) override file config but are
			// overridden by flags (checked via changed map).
			if err := gateway.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			zl.Info().Interface("config", logCfg).Msg("configuration")

			opts := []gateway.Option{}
			if cfgFile != "" && gateway.FileExists(cfgFile) {
				opts = append(opts, gateway.WithConfigFile(cfgFile))
			}

			gw, err := gateway.New(cfg, logger, opts...)
			if err != nil {
				return fmt.Errorf("create gateway: %w", err)
			}

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				zl.Info().Msg("received signal, stopping...")
				cancel()
			}()

			return gw.Run(ctx)
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.batchd/config.toml)")
	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")

	root.Flags().StringVar(&cfg.Model, "model", cfg.Model, "served model name")
	root.Flags().StringVar(&cfg.ModelStage, "model-stage", cfg.ModelStage, "registry stage to resolve (production, staging, ...)")
	root.Flags().StringVar(&cfg.ModelURL, "model-url", cfg.ModelURL, "inference runtime base URL (skips registry resolution)")
	root.Flags().StringVar(&cfg.RegistryURL, "registry-url", cfg.RegistryURL, "model registry base URL")
	root.Flags().StringVar(&cfg.TrackingURL, "tracking-url", cfg.TrackingURL, "tracking server base URL for batch metrics")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")

	root.Flags().IntVar(&cfg.MaxBatchSize, "max-batch-size", cfg.MaxBatchSize, "maximum requests per batch")
	root.Flags().DurationVar(&cfg.MaxWait, "max-wait", cfg.MaxWait, "maximum queue wait before a batch is dispatched")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "collector poll interval when idle")

	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for outbound calls")
	root.Flags().DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "how long to wait for the runtime health check (0 disables)")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("batchd")
		os.Exit(1)
	}
}
