package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/sinicar/installment-engine/internal/config"
	"github.com/sinicar/installment-engine/internal/handler"
	"github.com/sinicar/installment-engine/internal/repository"
	"github.com/sinicar/installment-engine/internal/service"
	"github.com/sinicar/installment-engine/pkg/response"
)

func main() {
	// Load .env for local runs; in deployment everything comes from the
	// environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Initialize service and handlers
	installmentService := service.NewInstallmentService(requestRepo, offerRepo, settingsRepo, redisClient, cfg)
	installmentHandler := handler.NewInstallmentHandler(installmentService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(installmentHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(installmentHandler *handler.InstallmentHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/installments", installmentHandler.CreateRequest).Methods("POST")
	api.HandleFunc("/installments", installmentHandler.ListRequests).Methods("GET")
	api.HandleFunc("/installments/{requestId}", installmentHandler.GetRequest).Methods("GET")
	api.HandleFunc("/installments/{requestId}/review", installmentHandler.Review).Methods("POST")
	api.HandleFunc("/installments/{requestId}/forward", installmentHandler.Forward).Methods("POST")
	api.HandleFunc("/installments/{requestId}/offers", installmentHandler.CreateOffer).Methods("POST")
	api.HandleFunc("/installments/{requestId}/cancel", installmentHandler.Cancel).Methods("POST")
	api.HandleFunc("/installments/{requestId}/close", installmentHandler.Close).Methods("POST")
	api.HandleFunc("/installments/{requestId}/complete", installmentHandler.Complete).Methods("POST")
	api.HandleFunc("/offers/{offerId}/response", installmentHandler.RespondToOffer).Methods("POST")
	api.HandleFunc("/settings/installments", installmentHandler.GetSettings).Methods("GET")
	api.HandleFunc("/settings/installments", installmentHandler.UpdateSettings).Methods("PUT")

	return router
}
