package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	api "mailtrack-backend/cmd/api"
	"mailtrack-backend/internal/alert"
	mailRepo "mailtrack-backend/internal/mail/repository"
	"mailtrack-backend/internal/mail/scheduler"
	mailUsecase "mailtrack-backend/internal/mail/usecase"
	"mailtrack-backend/pkg/config"
	"mailtrack-backend/pkg/database"
	"mailtrack-backend/pkg/fcm"
	"mailtrack-backend/pkg/lock"
	"mailtrack-backend/pkg/pubsub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := config.Load()

	// Apply schema migrations before the pool opens
	if err := database.Migrate(cfg); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	mailRepository := mailRepo.NewGormMailRepository(db)

	// One writer lock shared by ingestion and the overdue sweep
	writeLock := &sync.Mutex{}

	mailUsecaseInstance := mailUsecase.NewMailUsecase(mailRepository, mailUsecase.Options{
		ReferencePrefix: cfg.ReferencePrefix,
		OrgName:         cfg.OrgName,
		WriteLock:       writeLock,
	})

	notifiers := alert.MultiNotifier{alert.LogNotifier{}}

	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push alerts disabled): %v", err)
		} else {
			notifiers = append(notifiers, alert.NewFCMNotifier(fcmClient, cfg.FCMTopic))
			log.Printf("FCM alerts enabled on topic %s", cfg.FCMTopic)
		}
	} else {
		log.Println("No Firebase credentials configured, FCM alerts disabled")
	}

	if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
		topicName := pubsub.ShortTopicName(cfg.GooglePubSubTopic)
		publisher, err := pubsub.NewPublisher(ctx, cfg.GoogleProjectID, topicName, cfg.GoogleCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Pub/Sub publisher: %v", err)
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, alert.NewPubSubNotifier(publisher))
			log.Printf("Pub/Sub alerts enabled on topic %s", topicName)
		}
	}

	var lease scheduler.Lease
	if cfg.RedisURL != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[WARN] Redis unavailable, sweeping without a lease: %v", err)
		} else {
			defer rdb.Close()
			// Expire slightly before the next tick so the lease frees up for it
			lease = lock.NewLease(rdb, "overdue-sweep", cfg.SweepInterval*9/10)
		}
	}

	overdueScheduler := scheduler.NewOverdueScheduler(mailRepository, notifiers, scheduler.Options{
		Interval:              cfg.SweepInterval,
		DefaultThresholdHours: cfg.DefaultThresholdHours,
		WriteLock:             writeLock,
		Lease:                 lease,
	})
	overdueScheduler.Start(ctx)
	defer overdueScheduler.Stop()

	feed := alert.NewFeed(mailRepository, cfg.AlertWindow, cfg.DefaultThresholdHours)

	// Initialize HTTP handler
	handler := api.NewHandler(mailUsecaseInstance, feed, cfg)
	srv := handler.Server(":" + cfg.Port)

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
