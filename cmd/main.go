package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtside/courtside/broker"
	"courtside/courtside/config"
	"courtside/courtside/database"
	"courtside/courtside/feed"
	"courtside/courtside/middleware"
	"courtside/courtside/routes"
	"courtside/courtside/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// The broker is optional: without it the API still works but clients
	// get no live updates.
	producer, err := broker.NewProducer(cfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize NATS producer: %v", err)
		log.Println("The application will continue, but live updates will be disabled")
		producer = nil
	} else {
		defer producer.Close()
	}

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours)
	services.AuthServiceInstance = authService

	eventService := services.NewEventService(producer)
	services.EventServiceInstance = eventService

	// Live sync pipeline: feed client polls the upstream scores API, the
	// reconciler folds snapshots into the store, deltas go out over NATS.
	feedClient := feed.NewClient(cfg.SportsAPIBaseURL, cfg.SportsAPIKey, time.Duration(cfg.FeedTimeoutSecs)*time.Second)
	eventStore := services.NewGormEventStore(db)
	reconciler := services.NewReconcilerService()
	syncService := services.NewLiveSyncService(
		eventStore,
		feedClient,
		reconciler,
		producer,
		time.Duration(cfg.SyncIntervalSecs)*time.Second,
	)
	services.LiveSyncServiceInstance = syncService
	syncService.Start()
	defer syncService.Stop()

	webSocketService := services.NewWebSocketService(db)
	services.WebSocketServiceInstance = webSocketService
	webSocketService.Start(cfg)
	defer webSocketService.Stop()

	router := gin.Default()
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	routes.RegisterAuthRoutes(router, db, authService)
	routes.RegisterWebSocketRoutes(router, authService, webSocketService)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		routes.RegisterEventRoutes(api, db, eventService)
		routes.RegisterSearchRoutes(api, db, eventService)
		routes.RegisterStandingsRoutes(api, db, services.StandingsServiceInstance)
		routes.RegisterUserRoutes(api, db, services.UserServiceInstance, eventService)
		routes.RegisterLiveRoutes(api, db, syncService, eventService)
		routes.RegisterBasketballRoutes(api, feedClient)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		syncService.Stop()
		webSocketService.Stop()
		if producer != nil {
			producer.Close()
		}
		db.Close()
		os.Exit(0)
	}()

	log.Printf("API server is running on port %s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
