package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"orderchat/internal/config"
	"orderchat/internal/infrastructure"
	"orderchat/internal/interfaces/http"
	"orderchat/internal/usecases"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := infrastructure.NewLogger(cfg.LogLevel, cfg.LogPretty)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	store, err := infrastructure.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	if err := store.SyncCatalog(ctx, cfg.CatalogCSV, log); err != nil {
		log.Warn().Err(err).Msg("failed to sync products from CSV")
	}

	// Widget sessions
	factory := func(ownerID string) *usecases.ChatWidget {
		return usecases.NewChatWidget(ownerID, store, store,
			usecases.WithTypingDelay(cfg.TypingDelay),
			usecases.WithLogger(log),
		)
	}
	sessions := infrastructure.NewSessionManager(factory, cfg.SessionTTL, log)
	defer sessions.Close()

	limiter := infrastructure.NewOwnerLimiter(cfg.RateLimit, cfg.RateBurst)
	defer limiter.Close()

	authUsecase := usecases.NewAuthUsecase(store, cfg.JWTSecret)

	// HTTP server
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	http.SetupRoutes(r,
		http.NewHandler(sessions, store, authUsecase, log),
		http.NewMiddleware(authUsecase, limiter, cfg.AllowedOrigin),
		log,
	)

	srv := &stdhttp.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", store.Backend).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	// Telegram polling
	if cfg.TelegramBotToken != "" {
		bot, err := infrastructure.NewTelegramBot(cfg.TelegramBotToken, sessions, limiter, log)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram disabled")
		} else {
			go bot.Run(ctx)
			defer bot.Stop()
		}
	} else {
		log.Info().Msg("Telegram disabled (token missing)")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
