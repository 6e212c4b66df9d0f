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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/config"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/database"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/handlers"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/services"
)

func main() {
	// 1. Load Configuration (.env, configs/config.yaml, environment)
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database Connection
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// 3. Initialize Core Services (Dependencies)
	llmService, err := services.NewLLMService(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to create LLM client: ", err)
	}

	var notifier services.Notifier = services.LogNotifier{}
	if cfg.RabbitMQURL != "" {
		amqpNotifier, err := services.NewAMQPNotifier(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("⚠️  RabbitMQ unavailable, notifications go to the log: %v", err)
		} else {
			defer amqpNotifier.Close()
			notifier = amqpNotifier
			log.Println("✅ RabbitMQ notifier connected.")
		}
	}

	subscriptionService := services.NewSubscriptionService(db)
	matcherService := services.NewMatcherService(db)
	coverLetterService := services.NewCoverLetterService(llmService)
	autoApplyService := services.NewAutoApplyService(db, subscriptionService, matcherService, coverLetterService, notifier)
	preferenceService := services.NewPreferenceService(db)
	batchService := services.NewBatchService(db, subscriptionService, autoApplyService,
		cfg.AutoApplyBatchSize, cfg.AutoApplyInterval, cfg.AutoApplyRunTimeout)

	// 4. Start the periodic auto-apply watcher
	batchService.StartWatcher(ctx)

	// 5. Initialize Handlers
	autoApplyHandler := handlers.NewAutoApplyHandler(preferenceService, autoApplyService, batchService)

	// 6. Setup Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 7. Define Routes
	autoApplyHandler.Register(r.Group("/api/v1"))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
