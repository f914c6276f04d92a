package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kiosk/internal/app"
	"kiosk/internal/config"

	"github.com/spf13/pflag"
)

func main() {
	envFile := pflag.String("env-file", ".env", "file with KEY=value settings loaded before the environment")
	port := pflag.Int("port", 0, "HTTP port (overrides PORT)")
	noAutostart := pflag.Bool("no-autostart", false, "do not open the cameras at startup")
	pflag.Parse()

	cfg := config.Load(*envFile)
	if *port != 0 {
		cfg.Port = *port
	}
	if *noAutostart {
		cfg.AutoStartMonitors = false
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
