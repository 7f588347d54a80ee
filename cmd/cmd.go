package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"celebration-backend/internal/config"
	"celebration-backend/internal/handlers"
	"celebration-backend/internal/middleware"
	"celebration-backend/internal/repository"
	"celebration-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	albumRepo := repository.NewAlbumRepository(db)

	// Initialize services
	wsHub := services.NewWSHub()
	notifier, err := services.NewNotifier(cfg.APNS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push notifier")
	}
	userService := services.NewUserService(userRepo, cfg.JWT.Secret)
	friendService := services.NewFriendService(friendRepo, userRepo, wsHub, notifier)
	eventService := services.NewEventService(eventRepo, userRepo, friendRepo, wsHub, notifier, cfg.App.BaseURL)
	photoService, err := services.NewPhotoService(
		cfg.AWS.Region,
		cfg.AWS.S3Bucket,
		cfg.AWS.AccessKey,
		cfg.AWS.SecretKey,
		cfg.AWS.Endpoint,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}
	albumService := services.NewAlbumService(albumRepo, photoService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, photoService)
	eventHandler := handlers.NewEventHandler(eventService, photoService)
	friendHandler := handlers.NewFriendHandler(friendService)
	albumHandler := handlers.NewAlbumHandler(albumService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Get("/users/me", userHandler.GetMe)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/picture", userHandler.UploadProfilePicture)
			r.Put("/users/me/push-token", userHandler.UpdatePushToken)
			r.Get("/users/search", userHandler.SearchUsers)
			r.Get("/users/{user_id}", userHandler.GetUser)

			r.Post("/events", eventHandler.CreateEvent)
			r.Get("/events/feed", eventHandler.ListFeed)
			r.Get("/events/mine", eventHandler.ListMine)
			r.Get("/events/saved", eventHandler.ListUploadTargets)
			r.Get("/events/shared", eventHandler.ListShared)
			r.Patch("/events/{event_id}", eventHandler.UpdateEvent)
			r.Delete("/events/{event_id}", eventHandler.DeleteEvent)
			r.Delete("/events/{event_id}/saved", eventHandler.RemoveFromMyEvents)
			r.Post("/events/{event_id}/share", eventHandler.ShareEvent)
			r.Post("/events/{event_id}/shared/accept", eventHandler.AcceptSharedEvent)
			r.Post("/events/{event_id}/shared/decline", eventHandler.DeclineSharedEvent)
			r.Post("/events/{event_id}/photos", eventHandler.UploadEventPhotos)

			r.Get("/friends", friendHandler.ListFriends)
			r.Delete("/friends/{user_id}", friendHandler.RemoveFriend)
			r.Get("/friends/requests", friendHandler.ListRequests)
			r.Post("/friends/requests/{user_id}", friendHandler.SendRequest)
			r.Delete("/friends/requests/{user_id}", friendHandler.CancelRequest)
			r.Post("/friends/requests/{user_id}/accept", friendHandler.AcceptRequest)
			r.Post("/friends/requests/{user_id}/reject", friendHandler.RejectRequest)
			r.Get("/friends/requests/{user_id}/status", friendHandler.GetRequestStatus)

			r.Post("/albums", albumHandler.CreateAlbum)
			r.Get("/albums", albumHandler.ListAlbums)
			r.Get("/albums/{album_id}", albumHandler.GetAlbum)
			r.Post("/albums/{album_id}/photos", albumHandler.AddAlbumPhotos)
			r.Post("/albums/{album_id}/friends", albumHandler.AddAlbumFriends)
		})
	})

	// Public deep-link routes, no session required
	r.Get("/events/{event_id}", eventHandler.GetEvent)
	r.Get("/events/{event_id}/qr", eventHandler.GetEventQR)

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
