package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/Dev-Arnold/coinBackend/internal/api"
	"github.com/Dev-Arnold/coinBackend/internal/artifact"
	"github.com/Dev-Arnold/coinBackend/internal/config"
	"github.com/Dev-Arnold/coinBackend/internal/database"
	"github.com/Dev-Arnold/coinBackend/internal/notify"
	"github.com/Dev-Arnold/coinBackend/internal/repository"
	"github.com/Dev-Arnold/coinBackend/internal/schedule"
	"github.com/Dev-Arnold/coinBackend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Bank details are stored encrypted when a fernet key is configured.
	var fernetKey *fernet.Key
	if cfg.Security.FernetKey != "" {
		fernetKey, err = fernet.DecodeKey(cfg.Security.FernetKey)
		if err != nil {
			log.Fatalf("Failed to decode fernet key: %v", err)
		}
	} else {
		log.Println("FERNET_KEY not set; bank details will be stored unencrypted")
	}

	timetable, err := schedule.NewTimetable(cfg.Auction.Timezone)
	if err != nil {
		log.Fatalf("Failed to load auction timezone: %v", err)
	}

	artifacts, err := artifact.NewFileStore(cfg.Storage.ArtifactDir)
	if err != nil {
		log.Fatalf("Failed to prepare artifact storage: %v", err)
	}

	// Create repositories
	userRepo := repository.NewUserRepository(db, fernetKey)
	coinRepo := repository.NewCoinRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	notifier := notify.NewNotifier(notify.LogSender{})

	// Create services
	creditService := service.NewCreditService(userRepo, cfg.Auction)
	userService := service.NewUserService(userRepo)
	coinService := service.NewCoinService(coinRepo, userRepo, transactionRepo)
	auctionService := service.NewAuctionService(sessionRepo, coinRepo, transactionRepo, timetable, cfg.Auction)
	reservationService := service.NewReservationService(
		coinRepo, userRepo, sessionRepo, transactionRepo, creditService, notifier, cfg.Auction,
	)
	tradeService := service.NewTradeService(
		coinRepo, userRepo, transactionRepo, creditService, notifier, cfg.Auction,
	)
	profitService := service.NewProfitService(coinRepo, userRepo)

	// Recurring jobs: session lifecycle, approvals, deadline sweeps and
	// profit crediting.
	runner := schedule.NewRunner(timetable, schedule.Jobs{
		OpenSession: func(ctx context.Context) error {
			_, err := auctionService.OpenSession(ctx)
			return err
		},
		CloseExpired: auctionService.CloseExpired,
		AutoApprove: func(ctx context.Context) error {
			_, err := auctionService.AutoApprovePending(ctx)
			return err
		},
		SweepReservations: func(ctx context.Context) error {
			_, err := reservationService.SweepExpired(ctx)
			return err
		},
		SweepDeadlines: func(ctx context.Context) error {
			_, err := tradeService.SweepDeadlines(ctx)
			return err
		},
		SweepProfits: profitService.Sweep,
	})
	if err := runner.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Create router
	router := api.NewRouter(db, api.Services{
		User:        userService,
		Coin:        coinService,
		Auction:     auctionService,
		Reservation: reservationService,
		Trade:       tradeService,
		Credit:      creditService,
	}, artifacts, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-runner.Stop().Done()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
