package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/zerotwo/sensor-gateway/clickhouse"
	"github.com/zerotwo/sensor-gateway/config"
	httpserver "github.com/zerotwo/sensor-gateway/http"
	"github.com/zerotwo/sensor-gateway/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, shutdown, err := telemetry.NewProvider(ctx)
	if err != nil {
		log.Fatalf("telemetry exporter error: %v", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer flushCancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("telemetry flush error: %v", err)
		}
	}()

	emitter := telemetry.NewEmitter(provider)
	store := clickhouse.New(cfg)

	srv := httpserver.New(cfg, emitter, store)
	log.Printf("gateway listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
