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

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/carcast/internal/cliconfig"
	"github.com/bft-labs/carcast/pkg/carcast"
	"github.com/bft-labs/carcast/pkg/log"
	"github.com/bft-labs/carcast/plugins/adminhttp"
	"github.com/bft-labs/carcast/plugins/configwatcher"
)

const helpDescription = `
Publish synthetic vehicle telemetry (speed, yaw rate) to TCP clients.

Every connected client receives its own stream of length-prefixed frames:
a 4-byte little-endian length, then the reading padded to 8 bytes.
Configure via file ($HOME/.carcast/config.toml), CARCAST_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  carcast
  carcast --host 0.0.0.0 --port 9000 --interval 500ms
  carcast --admin-addr 127.0.0.1:9100 --log-format json --log-level debug --log-frames
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	boot := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "carcast",
		Short:         "Stream synthetic vehicle telemetry over TCP",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			haveFile := cfgFile != "" && cliconfig.FileExists(cfgFile)
			if haveFile {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment overrides the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := cliconfig.NewLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			logger.Info().Interface("config", cfg).Msg("configuration")

			return run(cmd.Context(), cfg, cfgFile, haveFile && !changed["interval"], logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.carcast/config.toml)")
	root.Flags().StringVar(&cfg.Host, "host", cfg.Host, "address to listen on")
	root.Flags().IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on (0 picks a free port)")
	root.Flags().DurationVar(&cfg.SendInterval, "interval", cfg.SendInterval, "pause between frames on each connection")
	root.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-frame write deadline (0 disables)")
	root.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for readings (0 seeds from the clock)")
	root.Flags().StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "serve /healthz, /status and /metrics on this address")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console, json)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write logs to this rotating file")
	root.Flags().BoolVar(&cfg.LogFrames, "log-frames", cfg.LogFrames, "log every reading and raw frame at debug level")

	if err := root.Execute(); err != nil {
		boot.Error().Err(err).Msg("carcast")
		os.Exit(1)
	}
}

// run serves until SIGINT or SIGTERM, or until the accept loop fails.
func run(parent context.Context, cfg cliconfig.Config, cfgFile string, watch bool, logger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []carcast.Option{
		carcast.WithLogger(log.NewZerologAdapterWithLogger(logger)),
		carcast.WithMetricsRegistry(registry),
	}
	if cfg.AdminAddr != "" {
		opts = append(opts, adminhttp.WithAdminHTTP(adminhttp.Config{Addr: cfg.AdminAddr}))
	}
	if watch {
		opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.DefaultConfig(cfgFile)))
	}

	srv, err := carcast.New(cfg.ServerConfig(), opts...)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// The server outlives ctx so that a signal goes through Stop below.
	if err := srv.Start(context.Background()); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info().Str("addr", srv.Addr()).Msg("server listening")
	sdnotify(logger, daemon.SdNotifyReady)

	// Poll for a crashed accept loop; signals arrive through ctx. A crashed
	// server has already closed its connections and shut its plugins down.
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-ctx.Done():
			logger.Info().Msg("received signal, stopping...")
			running = false
		case <-ticker.C:
			if srv.Status() == carcast.StateCrashed {
				logger.Error().Msg("server crashed")
				running = false
			}
		}
	}

	sdnotify(logger, daemon.SdNotifyStopping)
	if srv.Status() == carcast.StateCrashed {
		return fmt.Errorf("accept loop failed")
	}
	if err := srv.Stop(); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	return nil
}

// sdnotify reports state to systemd when running under a notify unit.
func sdnotify(logger zerolog.Logger, state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		logger.Warn().Err(err).Str("state", state).Msg("sd_notify failed")
	}
}
