package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradeCraftAPI/handlers"
	"tradeCraftAPI/internal/config"
	"tradeCraftAPI/internal/database"
	"tradeCraftAPI/internal/docstore"
	"tradeCraftAPI/internal/notification"
	"tradeCraftAPI/middleware"
	"tradeCraftAPI/services"

	_ "net/http/pprof"
)

//go:embed db/migrations
var migrationsFS embed.FS

var (
	cfg              *config.Config
	dbPool           *pgxpool.Pool
	challengeService *services.ChallengeService
	fcmService       *notification.FCMService
	pushRelay        *services.PushRelay
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Println("Clerk initialized successfully")

	if err := database.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Println("Database migrations applied")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err = database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	log.Println("Successfully connected to Postgres")

	progressionService := services.NewProgressionService(dbPool)
	streakService := services.NewStreakService(dbPool)
	xpService := services.NewXPService(dbPool)

	tierGate := services.NewTierGate(progressionService, cfg.EnforceTierGating)
	if cfg.EnforceTierGating {
		log.Println("Tier gating is ENFORCED for trade and collaboration challenges")
	}

	dispatcher := services.NewEventDispatcher()
	pushRelay = services.NewPushRelay()
	dispatcher.AddListener(pushRelay.Listener())

	fcmService, err = notification.NewFCMService(dbPool, cfg.FCMKeyFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
		fcmService = nil
	} else {
		pushRelay.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	challengeService = services.NewChallengeService(
		docstore.NewPGStore(dbPool),
		tierGate,
		dispatcher,
		xpService,
		streakService,
		xpService,
		progressionService,
	)

	middleware.InitPrometheus()
	services.InitMetrics()
}

func main() {
	defer func() {
		pushRelay.Stop()
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	challengeHandler := handlers.NewChallengeHandler(challengeService)
	notificationHandler := handlers.NewNotificationHandler(fcmService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "tradeCraft-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	api.HandleFunc("/challenges/{id}", challengeHandler.GetChallenge).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}/join", challengeHandler.JoinChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}/progress", challengeHandler.UpdateProgress).Methods("POST")
	protected.HandleFunc("/challenges/{id}/submit", challengeHandler.SubmitChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{id}/abandon", challengeHandler.AbandonChallenge).Methods("POST")
	protected.HandleFunc("/user-challenges", challengeHandler.ListUserChallenges).Methods("GET")
	protected.HandleFunc("/user-challenges/{id}/complete", challengeHandler.ManualComplete).Methods("POST")

	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)

	server := http.Server{
		Addr:         addr,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
