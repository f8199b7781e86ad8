package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cate-nduta/Lash-Business-sub009/app"
	"github.com/cate-nduta/Lash-Business-sub009/clients"
	"github.com/cate-nduta/Lash-Business-sub009/config"
	"github.com/cate-nduta/Lash-Business-sub009/config/db"
	rdb "github.com/cate-nduta/Lash-Business-sub009/config/redis"
	"github.com/cate-nduta/Lash-Business-sub009/controllers/booking_controller"
	"github.com/cate-nduta/Lash-Business-sub009/controllers/cancel_book_controller"
	"github.com/cate-nduta/Lash-Business-sub009/controllers/code_controller"
	"github.com/cate-nduta/Lash-Business-sub009/controllers/payment_controller"
	"github.com/cate-nduta/Lash-Business-sub009/events"
	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/middlewares/cors"
	"github.com/cate-nduta/Lash-Business-sub009/models/booking_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/revenue_models"
	"github.com/cate-nduta/Lash-Business-sub009/models/service_models"
	"github.com/cate-nduta/Lash-Business-sub009/routes"
	"github.com/cate-nduta/Lash-Business-sub009/utils/mail"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	db.Connect()
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migrator, err := app.NewMigrator(db.DB, "migrations")
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to initialize migrator: %v", err)
	}
	if err := migrator.Run(ctx); err != nil {
		logger.ErrorLogger.Fatalf("Failed to run migrations: %v", err)
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.InfoLogger.Infof("Database schema at version %d", version)
	}
	migrator.Close()

	redisClient, err := rdb.GetRedisClient(ctx)
	if err != nil {
		// Slot holds and rate limits degrade gracefully without Redis.
		logger.WarnLogger.Warnf("Redis unavailable, continuing without it: %v", err)
		redisClient = nil
	}
	defer rdb.CloseRedis()

	// Every transition lands in the application log; email rides alongside
	// when SMTP is configured.
	notifiers := events.MultiNotifier{events.LogNotifier{}}
	if mailer := mail.NewNotifier(); mailer != nil {
		notifiers = append(notifiers, mailer)
		logger.InfoLogger.Info("Email notifications enabled")
	} else {
		logger.WarnLogger.Warn("SMTP not configured; email notifications disabled")
	}
	var notifier events.Notifier = notifiers

	store := booking_models.NewPostgresStore(db.DB)
	registry := code_models.NewPostgresRegistry(db.DB)
	catalog := service_models.NewPostgresCatalog(db.DB)
	revenue := revenue_models.NewPostgresRecorder(db.DB)
	policy := config.LoadBookingPolicy()

	bookingService := booking_controller.NewBookingService(store, registry, catalog, policy, notifier, revenue, redisClient)
	bookingController := booking_controller.NewBookingController(bookingService)

	cancelController, err := cancel_book_controller.NewCancelBookController(store, policy, notifier)
	if err != nil {
		logger.ErrorLogger.Fatalf("Failed to initialize cancel controller: %v", err)
	}

	paymentService := payment_controller.NewPaymentService(store, notifier, revenue, db.DB)
	gateway := clients.NewRazorpayClient(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))
	paymentController := payment_controller.NewPaymentController(paymentService, gateway, os.Getenv("RAZORPAY_WEBHOOK_SECRET"))

	codeController := code_controller.NewCodeController(registry)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware())

	routes.RegisterAdminRoutes(r)
	routes.RegisterBookingRoutes(r, bookingController)
	routes.RegisterCancelBookRoutes(r, cancelController)
	routes.RegisterPaymentRoutes(r, paymentController)
	routes.RegisterCodeRoutes(r, codeController)
	routes.RegisterServicesRoutes(r, db.DB)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok from booking service"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.InfoLogger.Infof("Booking service listening on :%s", port)
		srvErr <- r.Run(":" + port)
	}()

	select {
	case err := <-srvErr:
		logger.ErrorLogger.Fatalf("Server exited: %v", err)
	case <-ctx.Done():
		logger.InfoLogger.Info("Shutdown signal received")
		time.Sleep(500 * time.Millisecond)
	}
}
