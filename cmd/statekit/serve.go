package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/statekit/internal/config"
	"github.com/vango-dev/statekit/internal/devtools"
	"github.com/vango-dev/statekit/pkg/inject"
	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/telemetry"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		tick       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the devtools inspector",
		Long: `Start the devtools inspector around a demo registry.

A Counter service is registered and incremented on an interval so the
event stream and metrics have something to show.

Examples:
  statekit serve
  statekit serve --addr=0.0.0.0:7070
  statekit serve --config=./statekit.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				host, port, err := splitAddr(addr)
				if err != nil {
					return err
				}
				cfg.Devtools.Host, cfg.Devtools.Port = host, port
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle signals
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			return runServe(ctx, cfg, os.Stderr, tick)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to statekit.json (default: search from the working directory)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from statekit.json)")
	cmd.Flags().DurationVar(&tick, "tick", 2*time.Second, "Counter increment interval, 0 disables")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadFromWorkingDir()
}

// app is the wired set of components behind serve.
type app struct {
	logger   *slog.Logger
	tracker  *reactive.Tracker
	registry *inject.Registry
	hub      *devtools.Hub
	gatherer prometheus.Gatherer
}

func buildApp(cfg *config.Config, logw io.Writer) *app {
	logger := cfg.NewLogger(logw)
	a := &app{logger: logger}

	trackerOpts := []reactive.Option{
		reactive.WithLogger(logger),
		reactive.WithErrorHandler(func(err error) {
			logger.Warn("subscriber failure", "error", err)
		}),
	}

	a.hub = devtools.NewHub(devtools.HubOptions{
		BufferSize:   cfg.Devtools.EventBuffer,
		AllowOrigins: cfg.Devtools.AllowOrigins,
		Logger:       logger,
	})
	hooks := []inject.Hook{a.hub.Hook()}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		m := telemetry.NewMetrics(
			telemetry.WithRegistry(reg),
			telemetry.WithNamespace(cfg.Metrics.Namespace),
		)
		trackerOpts = append(trackerOpts, reactive.WithMetrics(m))
		hooks = append(hooks, m.Hook())
		a.gatherer = reg
	}
	if cfg.Tracing.Enabled {
		tr := telemetry.NewTracing(telemetry.WithTracerName(cfg.Tracing.TracerName))
		hooks = append(hooks, tr.Hook())
	}

	a.tracker = reactive.NewTracker(trackerOpts...)
	a.registry = inject.New(
		inject.WithLogger(logger),
		inject.WithDebug(cfg.Debug),
		inject.WithHook(inject.ChainHooks(hooks...)),
	)
	return a
}

func runServe(ctx context.Context, cfg *config.Config, logw io.Writer, tick time.Duration) error {
	a := buildApp(cfg, logw)

	inject.LazyPut(a.registry, func() (*Counter, error) {
		return newCounter(a.tracker, a.logger), nil
	})
	counter := inject.MustFind[*Counter](a.registry)

	view := reactive.NewView(a.tracker, func() error {
		a.logger.Info("counter changed", "count", counter.Count.Get())
		return nil
	})
	if err := view.Render(); err != nil {
		return err
	}
	defer a.registry.Reset()
	defer view.Dispose()

	ctx, cancel := context.WithCancel(ctx)
	ticking := make(chan struct{})
	defer func() {
		cancel()
		<-ticking
	}()

	if tick <= 0 {
		close(ticking)
	} else {
		go func() {
			defer close(ticking)
			ticker := time.NewTicker(tick)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					counter.Increment()
				}
			}
		}()
	}

	printBanner()
	success("devtools at http://%s", cfg.Address())
	info("registry:  http://%s/api/registry", cfg.Address())
	info("events:    ws://%s/ws", cfg.Address())
	if a.gatherer != nil {
		info("metrics:   http://%s/metrics", cfg.Address())
	}

	srv := devtools.NewServer(devtools.Options{
		Addr:     cfg.Address(),
		Registry: a.registry,
		Tracker:  a.tracker,
		Hub:      a.hub,
		Gatherer: a.gatherer,
		Logger:   a.logger,
	})
	return srv.Start(ctx)
}
