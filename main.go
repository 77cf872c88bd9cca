package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"drawing-board/internal/config"
	"drawing-board/internal/discovery"
	"drawing-board/internal/room"
	"drawing-board/internal/server"
	"drawing-board/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run serves until a signal arrives or the listener fails. Every resource
// it opens is released before it returns.
func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	sessions, err := store.Open(ctx, store.Options{
		Backend:     cfg.SessionBackend,
		Dir:         cfg.SessionDir,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return fmt.Errorf("open %s session store: %w", cfg.SessionBackend, err)
	}
	defer sessions.Close()
	logger.Info().Str("backend", cfg.SessionBackend).Msg("session store ready")

	rooms := room.NewRegistry(logger, room.WithMailbox(cfg.RoomMailbox))
	defer rooms.Close()

	board := server.New(rooms, sessions, server.Options{
		PublicURL:      cfg.PublicURL,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
		SendBuffer:     cfg.SendBuffer,
		StoreTimeout:   cfg.StoreTimeout,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      board.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.MDNSEnabled {
		if port, err := strconv.Atoi(cfg.Port); err != nil {
			logger.Warn().Err(err).Str("port", cfg.Port).Msg("mdns needs a numeric port, advertisement disabled")
		} else if mdnsServer, err := discovery.Advertise(port); err != nil {
			logger.Warn().Err(err).Msg("mdns advertisement disabled")
		} else {
			defer mdnsServer.Shutdown()
			logger.Info().Str("service", discovery.ServiceType).Msg("advertising on local network")
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("public_url", cfg.PublicURL).
			Msg("starting whiteboard server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
	case <-quit:
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
