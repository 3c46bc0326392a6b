package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/papo-live/papo/internal/ai"
	"github.com/papo-live/papo/internal/auth"
	"github.com/papo-live/papo/internal/config"
	httpHandler "github.com/papo-live/papo/internal/delivery/http"
	"github.com/papo-live/papo/internal/delivery/ws"
	"github.com/papo-live/papo/internal/middleware"
	"github.com/papo-live/papo/internal/room"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	var (
		port     = fs.StringP("port", "p", cfg.Port, "listen port")
		logLevel = fs.StringP("log-level", "l", cfg.LogLevel, "log level")
	)
	if err := fs.Parse(os.Args[1:]); err != nil {
		logger.Fatal().Err(err).Msg("failed to parse command line arguments")
	}
	cfg.Port = *port

	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse log level")
	}
	logger = logger.Level(lvl)

	if cfg.JWTSecret == "" {
		logger.Fatal().Msg("JWT_SECRET is required")
	}
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	directory := auth.NewMemoryDirectory()
	if cfg.UsersFile != "" {
		directory, err = auth.LoadDirectory(cfg.UsersFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.UsersFile).Msg("failed to load users file")
		}
		logger.Info().Int("users", directory.Len()).Msg("user directory loaded")
	} else {
		logger.Warn().Msg("no users file configured, every credential will be rejected")
	}

	var responder ai.Responder
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AIReplyTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("ai responder disabled")
		} else {
			responder = gemini
			logger.Info().Str("model", cfg.GeminiModel).Msg("ai responder enabled")
		}
	} else {
		logger.Info().Msg("no gemini api key, ai mentions will report unavailable")
	}

	registry := room.New()
	hub := ws.NewHub(ws.Config{
		Registry:  registry,
		Responder: responder,
		Logger:    &logger,
	})
	handler := httpHandler.NewHandler(httpHandler.Config{
		Hub:            hub,
		Verifier:       verifier,
		Directory:      directory,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         &logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.SecurityHeaders(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("chat relay listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Warn().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited gracefully")
}
