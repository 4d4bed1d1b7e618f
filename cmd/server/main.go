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

	"github.com/gin-gonic/gin"

	"github.com/agrinote/agrinote/internal/channels"
	"github.com/agrinote/agrinote/internal/config"
	"github.com/agrinote/agrinote/internal/crypto"
	"github.com/agrinote/agrinote/internal/database"
	"github.com/agrinote/agrinote/internal/diaries"
	"github.com/agrinote/agrinote/internal/health"
	"github.com/agrinote/agrinote/internal/notify"
	"github.com/agrinote/agrinote/internal/worker"
)

func main() {
	cfg := config.Load()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	if cfg.SeedDevData && cfg.Env == "development" {
		if err := database.SeedDevData(db); err != nil {
			log.Fatalf("failed to seed development data: %v", err)
		}
	}

	vault, err := crypto.NewVault(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("failed to initialize credential vault: %v", err)
	}

	sender := notify.NewClient(15 * time.Second)

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		log.Fatalf("failed to initialize task client: %v", err)
	}
	defer worker.CloseClient()

	stopWorker, err := worker.Start(cfg, db, vault, sender)
	if err != nil {
		log.Fatalf("failed to start worker: %v", err)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer stopScheduler()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.GET("/health", gin.WrapF(health.Handler))

	api := router.Group("/api")
	{
		org := api.Group("/orgs/:orgID")
		org.POST("/diaries", diaries.CreateDiaryHandler(db))
		org.GET("/diaries", diaries.ListDiariesHandler(db))
		org.POST("/channels", channels.RegisterChannelHandler(db, vault))
		org.GET("/channels", channels.ListChannelsHandler(db))
		org.DELETE("/channels/:id", channels.DeleteChannelHandler(db))
		org.POST("/channels/:id/test", channels.TestChannelHandler(db, vault, sender))
		org.POST("/digest", channels.TriggerDigestHandler(db))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
