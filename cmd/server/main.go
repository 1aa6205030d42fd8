package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signal-copier-go/internal/config"
	"signal-copier-go/internal/engine"
	"signal-copier-go/internal/extract"
	"signal-copier-go/internal/logger"
	"signal-copier-go/internal/store"
	"signal-copier-go/internal/telegram"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Open the state store
	st, err := store.New(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open state store", zap.Error(err))
	}

	// Build the engine
	extractor := extract.New(log, time.Duration(cfg.Parser.MatchTimeoutMS)*time.Millisecond)
	eng, err := engine.New(log, st, extractor)
	if err != nil {
		log.Fatal("Failed to initialize engine", zap.Error(err))
	}
	log.Info("State loaded, engine ready")

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start the Telegram transport when a token is configured; the HTTP
	// surface works without it.
	if cfg.Telegram.BotToken != "" {
		tg := telegram.NewClient(&cfg.Telegram, log)
		username, err := tg.GetMe(ctx)
		if err != nil {
			log.Fatal("Failed to connect to Telegram Bot API", zap.Error(err))
		}
		log.Info("Connected to Telegram Bot API", zap.String("bot", username))

		go func() {
			if err := tg.Run(ctx, func(channelID, rawText, title string) {
				if err := eng.OnMessage(channelID, rawText, title); err != nil {
					log.Error("Failed to handle message", zap.Error(err))
				}
			}); err != nil && ctx.Err() == nil {
				log.Error("Telegram loop exited", zap.Error(err))
			}
		}()
	} else {
		log.Warn("No Telegram bot token configured, transport disabled")
	}

	// Setup HTTP server
	mux := http.NewServeMux()
	handler := NewAPIHandler(log, eng)
	handler.Register(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
