package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"arcbot/internal/arc"
	"arcbot/internal/core"
	"arcbot/internal/storage"
	logx "arcbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config json or yaml")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := core.NewApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	cfg := app.ConfigManager().Get()

	busyTimeout, err := time.ParseDuration(valueOr(cfg.Storage.BusyTimeout, "0s"))
	if err != nil {
		fmt.Println("fatal: storage.busy_timeout:", err)
		os.Exit(1)
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, logx.New(os.Stdout, cfg.Logging.Level))
	if err != nil {
		fmt.Println("fatal: storage:", err)
		os.Exit(1)
	}
	defer store.Close()

	tracker := arc.NewTracker(store, app.Scheduler().Location(),
		app.Logger().With(slog.String("comp", "tracker")))

	app.RegisterCommands(arc.Commands(tracker))
	if err := arc.RegisterJobs(app.Scheduler(), app.Notifier(), tracker, cfg.Arc,
		app.Logger().With(slog.String("comp", "jobs"))); err != nil {
		fmt.Println("fatal: jobs:", err)
		os.Exit(1)
	}

	if err := app.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = app.Stop(stopCtx)

	if err := app.Err(); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func valueOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
