// File: senara/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"senara/config"
	"senara/cron"
	"senara/database"
	bookingRepo "senara/database/repository/booking"
	"senara/handlers"
	"senara/routes"
	"senara/services/assistant"
	"senara/services/booking"
	"senara/services/notification"
	"senara/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// repositories.
	repo := bookingRepo.NewSQLiteBookingRepo(database.DB)

	// services.
	bookingService := booking.NewDefaultBookingService(repo, logger)

	client := assistant.NewOpenAIClient(config.AppConfig.OpenAIAPIKey)

	ctx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	assistantID, err := assistant.EnsureAssistant(ctx, client, config.AppConfig.AssistantID, config.AppConfig.AssistantModel)
	cancelBoot()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to provision assistant: %v", err)
	}

	var sessionStore assistant.SessionStore
	if config.AppConfig.RedisAddr != "" {
		sessionStore = assistant.NewRedisSessionStore(utils.GetSessionCacheClient(), config.SessionTTL())
	} else {
		logger.Warn("no redis configured, sessions will not survive restarts")
		sessionStore = assistant.NewMemorySessionStore()
	}

	dispatcher := assistant.NewDispatcher(bookingService, logger)
	manager := assistant.NewManager(client, assistantID, sessionStore, dispatcher, logger)

	notificationService := notification.NewTwilioService(
		config.AppConfig.TwilioAccountSID,
		config.AppConfig.TwilioAuthToken,
		config.AppConfig.TwilioMessagingServiceSID,
		config.AppConfig.TwilioWhatsAppNumber,
		logger,
	)
	if config.AppConfig.RedisAddr != "" {
		cron.InitWorker(repo, notificationService, logger)
	}

	// handlers + routes.
	webhookHandler := handlers.NewWebhookHandler(manager, logger)
	reportsHandler := handlers.NewReportsHandler(repo)

	routes.RegisterWebhookRoutes(router, webhookHandler)
	routes.RegisterReportRoutes(router, reportsHandler)
	routes.RegisterHealthRoute(router)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown: let in-flight conversation turns finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
}
