package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/nixlim/scopetop/internal/config"
	"github.com/nixlim/scopetop/internal/settings"
	"github.com/nixlim/scopetop/internal/source"
	"github.com/nixlim/scopetop/internal/storage"
	"github.com/nixlim/scopetop/internal/tui"
	"github.com/nixlim/scopetop/internal/window"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to the TOML config file")
	initFlag := flag.Bool("init-config", false, "Write a default config file and exit")
	debugFlag := flag.String("debug", "", "Write a JSON debug log to the specified file path")
	dumpFlag := flag.Bool("dump", false, "Print top-level stats for the saved settings and exit")
	formatFlag := flag.String("format", "json", "Output format for -dump: json or yaml")
	flag.Parse()

	if *initFlag {
		RunInitConfig(*configPath)
		return
	}

	loadResult, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scopetop: config error: %v\n", err)
		os.Exit(1)
	}
	cfg := loadResult.Config

	for _, w := range loadResult.Warnings {
		fmt.Fprintf(os.Stderr, "scopetop: config warning: %s\n", w)
	}

	logger, closeLog, err := openLogger(*debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scopetop: failed to open debug log %q: %v\n", *debugFlag, err)
		os.Exit(1)
	}

	store, isPersistent, err := storage.NewStore(cfg.Storage, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scopetop: storage error: %v\n", err)
		os.Exit(1)
	}

	persister := settings.NewPersister(store, settings.Key(cfg.Source.BaseURL), logger)
	saved := persister.Load(settings.Default(cfg.Source.AppType).WithWindow(window.Last(cfg.DefaultPast())))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	client := source.New(cfg.Source.BaseURL, cfg.Timeout(),
		source.WithMetrics(source.NewMetrics(reg)),
		source.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *dumpFlag {
		err := runDump(ctx, client, saved, *formatFlag, os.Stdout)
		_ = store.Close()
		closeLog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "scopetop: %v\n", err)
			os.Exit(1)
		}
		return
	}

	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.CancelRequests = cancel
	shutdownMgr.CloseStore = store.Close
	shutdownMgr.Cleanup = closeLog

	if srv := startMetrics(cfg.Metrics.Listen, reg, logger); srv != nil {
		shutdownMgr.StopMetrics = srv.Shutdown
	}

	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			if err := shutdownMgr.Shutdown(); err != nil {
				logger.Warn().Err(err).Msg("shutdown finished with errors")
			}
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.SetOutput(io.Discard)

	opts := []tui.ModelOption{
		tui.WithSource(client),
		tui.WithSettings(saved),
		tui.WithSettingsSaver(persister),
		tui.WithPersistenceFlag(isPersistent),
		tui.WithContext(ctx),
		tui.WithLogger(logger),
		tui.WithOnShutdown(shutdown),
	}
	if mon, ok := store.(tui.WriteMonitor); ok {
		opts = append(opts, tui.WithWriteMonitor(mon))
	}
	model := tui.NewModel(cfg, opts...)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	go func() {
		select {
		case <-sigCh:
			shutdown()
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	if _, err := p.Run(); err != nil {
		shutdown()
		fmt.Fprintf(os.Stderr, "scopetop: %v\n", err)
		os.Exit(1)
	}
	shutdown()
}

// openLogger returns a JSON file logger when path is set and a no-op logger
// otherwise. The terminal belongs to the dashboard, so nothing is ever
// written to stderr once it starts.
func openLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}
	logger := zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return logger, func() { _ = f.Close() }, nil
}
