package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtsidehq/booking-server/config"
	repository "github.com/courtsidehq/booking-server/internal/database/postgres"
	cache "github.com/courtsidehq/booking-server/internal/database/redis"
	"github.com/courtsidehq/booking-server/internal/payments"
	"github.com/courtsidehq/booking-server/internal/service"
	"github.com/courtsidehq/booking-server/internal/transport"
	"github.com/courtsidehq/booking-server/internal/worker"
	"github.com/courtsidehq/booking-server/pkg/mq"
	"github.com/courtsidehq/booking-server/pkg/postgres"
	"github.com/courtsidehq/booking-server/pkg/redis"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := redis.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	sessionCache := cache.NewSessionCache(redisClient, cfg.Redis.CacheTTL)

	// Repositories
	sessionRepo := repository.NewSessionRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)

	// Domain event publishing is optional; without a broker the services
	// receive a nil publisher and skip it.
	var publisher service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		p, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer p.Close()
		publisher = p
		logger.Info("RabbitMQ publisher initialized")
	} else {
		logger.Warn("RabbitMQ disabled, domain events will not be published")
	}

	// Services
	sessionService := service.NewSessionService(sessionRepo, userRepo, sessionCache, logger)
	bookingService := service.NewBookingService(
		bookingRepo, sessionRepo, userRepo, membershipRepo, sessionCache,
		time.Duration(cfg.Booking.ReservationWindow)*time.Minute, logger,
	)
	cancellationService := service.NewCancellationService(
		bookingRepo, sessionRepo, orderRepo, userRepo, gateway, sessionCache, publisher, logger,
	)
	splitService := service.NewSplitPaymentService(
		sessionRepo, bookingRepo, orderRepo, userRepo, membershipRepo, gateway, cfg.Stripe.Currency, logger,
	)
	webhookService := service.NewWebhookService(
		orderRepo, bookingRepo, membershipRepo, eventRepo, gateway, publisher, logger,
	)
	membershipService := service.NewMembershipService(membershipRepo)
	userService := service.NewUserService(userRepo, gateway, logger)

	// Handlers
	sessionHandler := transport.NewSessionHandler(sessionService)
	bookingHandler := transport.NewBookingHandler(bookingService, cancellationService)
	paymentHandler := transport.NewPaymentHandler(splitService)
	webhookHandler := transport.NewWebhookHandler(gateway, webhookService, logger)
	userHandler := transport.NewUserHandler(userService, membershipService)

	router := transport.InitRoutes(sessionHandler, bookingHandler, paymentHandler, webhookHandler, userHandler)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	expiryWorker := worker.NewReservationExpiryWorker(
		bookingService,
		time.Duration(cfg.Worker.ExpiryInterval)*time.Minute,
		logger,
	)
	go expiryWorker.Start(workerCtx)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error running http server: %v", err)
		}
	}()

	logger.Infof("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("Server shutting down")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server exited")
}
