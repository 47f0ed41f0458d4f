package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/sinicar/installment-engine/internal/config"
	"github.com/sinicar/installment-engine/internal/repository"
)

func main() {
	log.Println("Starting installment scheduler...")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	offerRepo := repository.NewOfferRepository(db)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Invalid scheduler timezone: %v", err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	// Daily sweep: payment entries on accepted offers whose due date has
	// passed move from PENDING to OVERDUE.
	_, err = c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		updated, err := offerRepo.MarkOverdueEntries(ctx, time.Now().In(location))
		if err != nil {
			log.Printf("Overdue sweep failed: %v", err)
			return
		}
		log.Printf("Overdue sweep marked %d payment entries", updated)
	})
	if err != nil {
		log.Fatalf("Error scheduling overdue sweep: %v", err)
	}

	c.Start()
	log.Println("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down scheduler...")
	c.Stop()
	log.Println("Scheduler stopped")
}
