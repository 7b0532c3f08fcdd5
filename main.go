package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/scheduleu-web/internal/api"
	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/config"
	"github.com/isdelr/scheduleu-web/internal/database"
	"github.com/isdelr/scheduleu-web/internal/logger"
	"github.com/isdelr/scheduleu-web/internal/maintenance"
	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/isdelr/scheduleu-web/internal/supabase"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel)

	// Set up the local activity database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the hosted auth/data client. A zero timeout leaves requests
	// bounded only by the incoming request's context.
	supabaseClient := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: cfg.HTTPClientTimeout})

	// Set up services
	eventService := services.NewEventService(db)
	authService := services.NewAuthService(supabaseClient, eventService, cfg.AllowedEmailSuffix, cfg.PasswordResetRedirectURL)
	profileService := services.NewProfileService(authService, supabaseClient, eventService)
	sessions := auth.NewSessionManager([]byte(cfg.SessionSecret), cfg.IsProduction())

	// Set up and run the background event pruner
	pruner, err := maintenance.NewPruner(eventService, cfg.EventPruneSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event pruner")
	}
	go pruner.Run()

	// Set up router
	router := api.NewRouter(sessions, authService, profileService, eventService, cfg.AllowedOrigins, cfg.RegisterRedirectDelay)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	pruner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
