package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wyydra/yacall/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/yacall/internal/adapter/driven/notify/fanout"
	"github.com/Wyydra/yacall/internal/adapter/driven/notify/redis"
	"github.com/Wyydra/yacall/internal/adapter/driven/notify/sse"
	repo "github.com/Wyydra/yacall/internal/adapter/driven/persistence/memory"
	handler "github.com/Wyydra/yacall/internal/adapter/driving/http"
	"github.com/Wyydra/yacall/internal/config"
	"github.com/Wyydra/yacall/internal/core/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(cfg config.LogConfig) {
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
		return
	}
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	setupLogger(cfg.Log)
	l := log.Logger

	calls := repo.NewCallRepository()
	caps := repo.NewCapabilityRepository()
	hub := ws.NewHub(cfg.Policy.Self)

	var sinks fanout.Notifier
	var events *sse.Notifier
	if cfg.Notify.UseSSE() {
		events = sse.NewNotifier()
		defer events.Close()
		sinks = append(sinks, events)
	}
	if cfg.Notify.UseRedis() {
		rc := cfg.Notify.Redis
		client := redis.NewClient(redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			l.Warn().Err(err).Str("addr", rc.Addr).Msg("Redis unreachable, notifications will be dropped until it is")
		}
		publisher := redis.NewNotifier(client, rc.Channel, 0)
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	callService := service.NewCallService(cfg.Policy, calls, caps, hub, sinks)
	h := handler.NewHandler(callService, hub, events, cfg.Server.CORSOrigins)

	go hub.Run()

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().
			Str("addr", cfg.Server.Addr).
			Str("self", cfg.Policy.Self.String()).
			Str("notify", cfg.Notify.Backend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// hijacked signalling connections are not tracked by Shutdown
	hub.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	l.Info().Msg("Server exited")
}
