package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripnest/config"
	"tripnest/database"
	bookingRepoPkg "tripnest/database/repository/booking"
	listingRepoPkg "tripnest/database/repository/listing"
	paymentRepoPkg "tripnest/database/repository/payment"
	userRepoPkg "tripnest/database/repository/user"
	"tripnest/handlers"
	"tripnest/middleware"
	"tripnest/routes"
	"tripnest/services/booking"
	"tripnest/services/notification"
	"tripnest/services/payment"
	"tripnest/utils"
	"tripnest/worker"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories. Listing reads go through the redis cache since every
	// booking request prices against one.
	listingRepo := listingRepoPkg.NewCachedListingRepo(
		listingRepoPkg.NewMongoListingRepo(),
		utils.GetCacheClient(),
		logger,
	)
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()

	// task queue client for the reconciliation side effects.
	redisOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}
	enqueuer := notification.NewAsynqEnqueuer(redisOpt)
	defer enqueuer.Close()

	// services.
	bookingService := &booking.DefaultService{
		Bookings: bookingRepo,
		Listings: listingRepo,
		Logger:   logger,
	}

	gatewayClient := payment.NewChapaClient(
		config.AppConfig.ChapaBaseURL,
		config.AppConfig.ChapaSecretKey,
		logger,
	)

	reconciler := &payment.DefaultReconciler{
		Ledger:        bookingService,
		Payments:      paymentRepo,
		Users:         userRepo,
		Gateway:       gatewayClient,
		Notifier:      enqueuer,
		PublicBaseURL: config.AppConfig.PublicBaseURL,
		Logger:        logger,
	}

	// background email worker.
	mailer := notification.NewSMTPMailer(
		config.AppConfig.EmailHost,
		config.AppConfig.EmailPort,
		config.AppConfig.EmailUser,
		config.AppConfig.EmailPassword,
	)
	worker.InitConfirmationWorker(mailer)

	// Assemble the handler bundle and register routes.
	handlerBundle := &routes.HandlerBundle{
		UserRepo:       userRepo,
		BookingHandler: handlers.NewBookingHandler(bookingService),
		PaymentHandler: handlers.NewPaymentHandler(reconciler),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
