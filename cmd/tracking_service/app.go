package trackingservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"shuttle-track/internal/general/config"
	"shuttle-track/internal/general/jwt"
	"shuttle-track/internal/general/logger"
	"shuttle-track/internal/general/maps"
	"shuttle-track/internal/general/postgres"
	"shuttle-track/internal/general/rabbitmq"
	"shuttle-track/internal/general/redis"
	"shuttle-track/internal/general/websocket"
	"shuttle-track/internal/software/notify"
	pricinghandler "shuttle-track/internal/software/pricing/handler"
	pricingservice "shuttle-track/internal/software/pricing/service"
	trackinghandler "shuttle-track/internal/software/tracking/handler"
	trackingsvc "shuttle-track/internal/software/tracking/service"
)

// Run wires the tracking service and blocks until ctx is cancelled.
func Run(ctx context.Context, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New("tracking-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile("config/config.yaml")
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	// connect to Redis for live tracking sessions
	redisClient, err := redis.NewClient(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, nil)
		return err
	}
	defer redisClient.Close()

	// Google Maps client for distances, ETAs, and geocoding
	estimator, err := maps.NewEstimator(cfg.GoogleMaps.APIKey)
	if err != nil {
		logger.Error(ctx, "maps_client_failed", "Failed to initialize Google Maps client", err, nil)
		return err
	}

	// set up the RabbitMQ publisher and the JWT manager
	pub := rabbitmq.NewMQPublisher(rmq)
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the repos and stores
	uow := postgres.NewUnitOfWork(pool)
	bookingRepo := postgres.NewBookingRepo()
	driverRepo := postgres.NewDriverRepo()
	locationHistoryRepo := postgres.NewLocationHistoryRepo()
	promoRepo := postgres.NewPromoRepo()
	sessions := redis.NewSessionStore(redisClient, time.Duration(cfg.Tracking.SessionTTLHours)*time.Hour)

	// live location feed for the customer tracking page
	feed := websocket.NewFeed(logger)
	go func() {
		if err := feed.Run(ctx, rmq); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "feed_consumer_stopped", "Location feed consumer exited", err, nil)
		}
	}()

	// SMS worker drains the notify queue
	smsSender := notify.NewTwilioSender(cfg, logger)
	smsWorker := notify.NewWorker(logger, smsSender)
	go func() {
		if err := smsWorker.Run(ctx, rmq); err != nil && ctx.Err() == nil {
			logger.Error(ctx, "sms_worker_stopped", "SMS worker exited", err, nil)
		}
	}()

	// set up the services
	trackingService := trackingsvc.NewTrackingService(
		logger, uow, bookingRepo, driverRepo, locationHistoryRepo,
		sessions, pub, estimator,
		cfg.Tracking.SMSThresholdMinutes, cfg.Tracking.PublicBaseURL,
	)
	pricingService := pricingservice.NewPricingService(logger, uow, promoRepo, estimator)

	// set up the HTTP handlers and their routes
	mux := http.NewServeMux()
	trackinghandler.NewTrackingHTTPHandler(trackingService, logger, jwtManager, feed).RegisterRoutes(mux)
	pricinghandler.NewPricingHTTPHandler(pricingService, logger, jwtManager, estimator).RegisterRoutes(mux)

	// concurrency limiter (global) - blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.TrackingServicePort),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Tracking Service started on port %d", cfg.Services.TrackingServicePort),
		map[string]any{"port": cfg.Services.TrackingServicePort, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Shutting down tracking service", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err,
				map[string]any{"port": cfg.Services.TrackingServicePort})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
