// File: medislot/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medislot/config"
	"medislot/cron"
	"medislot/database"
	doctorRepo "medislot/database/repository/doctor"
	"medislot/handlers"
	"medislot/middleware"
	"medislot/routes"
	"medislot/services/appointment"
	"medislot/services/booking"
	"medislot/services/doctor"
	"medislot/services/notification"
	"medislot/services/payment"
	"medislot/services/reminder"
	"medislot/services/scheduling"
	"medislot/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	cfg := config.AppConfig
	if cfg.JWTSecret == "" {
		logger.Fatal("main: JWT_SECRET is required")
	}
	loc := cfg.Location()

	rootCtx, stopMonitors := context.WithCancel(context.Background())
	defer stopMonitors()

	// Repository.
	var repo doctorRepo.DoctorRepository
	switch cfg.DatabaseDriver {
	case "memory":
		logger.Warn("main: using the in-memory store, data is lost on restart")
		repo = doctorRepo.NewMemoryDoctorRepo()
	default:
		if err := database.InitDB(); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		mongoRepo := doctorRepo.NewMongoDoctorRepo(database.Database())
		if err := mongoRepo.EnsureIndexes(); err != nil {
			logger.Fatal("main: failed to create indexes", zap.Error(err))
		}
		repo = mongoRepo
	}

	// Redis is optional: without it availability reads go straight to the store and
	// the sweeper runs on a process-local lease.
	if err := utils.InitCache(); err != nil {
		logger.Warn("main: Redis unavailable, continuing without cache", zap.Error(err))
	}
	redisClient := utils.GetCacheClient()
	utils.StartHealthMonitor(rootCtx, redisClient, database.MongoClient)

	metrics := utils.NewMetrics("medislot", prometheus.DefaultRegisterer)

	// Live events.
	hub := notification.NewHub(logger)
	sinks := []notification.Sink{hub}
	if cfg.FirebaseCredentialsFile != "" {
		fcmClient, err := utils.FirebaseInit(rootCtx, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Warn("main: push notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, notification.NewFCMSink(fcmClient))
		}
	}
	var amqpSink *notification.AMQPSink
	if cfg.AMQPURL != "" {
		sink, err := notification.NewAMQPSink(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("main: event fan-out disabled", zap.Error(err))
		} else {
			amqpSink = sink
			sinks = append(sinks, sink)
		}
	}
	dispatcher := notification.NewDispatcher(1024, 5*time.Second, metrics, logger, sinks...)
	dispatcher.Start()

	// Services.
	doctorService := &doctor.DefaultDoctorService{Repo: repo, Logger: logger}
	availabilityService := &scheduling.DefaultAvailabilityService{
		Repo:     repo,
		Cache:    scheduling.NewRedisAvailabilityCache(redisClient, 10*time.Minute, logger),
		Location: loc,
		Logger:   logger,
	}
	bookingService := &booking.DefaultBookingService{
		Repo:     repo,
		Events:   dispatcher,
		Metrics:  metrics,
		Location: loc,
		Logger:   logger,
	}
	appointmentService := &appointment.DefaultAppointmentService{
		Repo:    repo,
		Events:  dispatcher,
		Metrics: metrics,
		Logger:  logger,
	}

	var gateway payment.Gateway = payment.LocalGateway{}
	if cfg.StripeKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeKey)
	}
	if cfg.PaymentKeySecret == "" {
		logger.Warn("main: PAYMENT_KEY_SECRET is not set, payment endpoints will answer 503")
	}
	paymentService := &payment.DefaultPaymentService{
		Appointments: appointmentService,
		Gateway:      gateway,
		Secret:       cfg.PaymentKeySecret,
		Currency:     cfg.PaymentCurrency,
		Events:       dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	}

	// Reminders.
	var (
		scheduler   *cron.ReminderScheduler
		queueClient *asynq.Client
		worker      *asynq.Server
	)
	if cfg.MailConfigured() {
		mailer := notification.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)

		var sender reminder.Sender = mailer
		if cfg.ReminderQueueEnabled {
			queueClient = asynq.NewClient(cron.QueueRedisOpt())
			worker = cron.InitReminderWorker(mailer, logger)
			sender = cron.NewQueueSender(queueClient)
		}

		sweeper := &reminder.Sweeper{
			Repo:         repo,
			Sender:       sender,
			Location:     loc,
			Window:       cfg.ReminderWindow,
			SendTimeout:  cfg.ReminderSendTimeout,
			SweepTimeout: cfg.ReminderSweepTimeout,
			Concurrency:  cfg.ReminderConcurrency,
			Metrics:      metrics,
			Logger:       logger,
		}

		var lease cron.Lease = cron.LocalLease{}
		if redisClient != nil {
			lease = cron.NewRedisLease(redisClient, "medislot:reminder-sweep")
		}
		s, err := cron.NewReminderScheduler(sweeper, lease, cfg.ReminderInterval, cfg.ReminderWindow, logger)
		if err != nil {
			logger.Fatal("main: invalid reminder schedule", zap.Error(err))
		}
		scheduler = s
		scheduler.Start(rootCtx)
	} else {
		logger.Warn("main: SMTP settings missing, appointment reminders are disabled")
	}

	// Handlers.
	doctorHandler := handlers.NewDoctorHandler(doctorService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	appointmentHandler := handlers.NewAppointmentHandler(bookingService, appointmentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	wsHandler := handlers.NewWebsocketHandler(hub)

	handlerBundle := &handlers.HandlerBundle{
		// Doctor listing endpoints.
		CreateDoctorHandler: doctorHandler.CreateDoctorHandler,
		ListDoctorsHandler:  doctorHandler.ListDoctorsHandler,
		GetDoctorHandler:    doctorHandler.GetDoctorHandler,

		// Availability endpoints.
		GetAvailabilityHandler:   availabilityHandler.GetAvailabilityHandler,
		SetAvailabilityHandler:   availabilityHandler.SetAvailabilityHandler,
		MergeAvailabilityHandler: availabilityHandler.MergeAvailabilityHandler,
		DeleteWindowHandler:      availabilityHandler.DeleteWindowHandler,
		GetSlotsHandler:          availabilityHandler.GetSlotsHandler,

		// Appointment endpoints.
		BookAppointmentHandler:         appointmentHandler.BookAppointmentHandler,
		UpdateAppointmentStatusHandler: appointmentHandler.UpdateAppointmentStatusHandler,
		DoctorAppointmentsHandler:      appointmentHandler.DoctorAppointmentsHandler,
		PatientAppointmentsHandler:     appointmentHandler.PatientAppointmentsHandler,

		// Payment endpoints.
		CreateOrderHandler:   paymentHandler.CreateOrderHandler,
		VerifyPaymentHandler: paymentHandler.VerifyPaymentHandler,
		PaymentStatusHandler: paymentHandler.PaymentStatusHandler,
		RefundPaymentHandler: paymentHandler.RefundPaymentHandler,

		WebsocketHandler: wsHandler.ServeWS,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := cfg.AppPort
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	if scheduler != nil {
		scheduler.Stop()
	}
	stopMonitors()
	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		_ = queueClient.Close()
	}
	dispatcher.Stop(ctx)
	if amqpSink != nil {
		_ = amqpSink.Close()
	}
	if err := database.Disconnect(ctx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
