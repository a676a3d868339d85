package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/docslot/docslot/libs/config"
	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/libs/httpx"
	"github.com/docslot/docslot/libs/kafkax"
	otelx "github.com/docslot/docslot/libs/otel"
	"github.com/docslot/docslot/libs/runtime"
	"github.com/docslot/docslot/services/scheduling-service/internal/booking"
	"github.com/docslot/docslot/services/scheduling-service/internal/confirmation"
	"github.com/docslot/docslot/services/scheduling-service/internal/handlers"
	"github.com/docslot/docslot/services/scheduling-service/internal/outbox"
	"github.com/docslot/docslot/services/scheduling-service/internal/review"
	"github.com/docslot/docslot/services/scheduling-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8081")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	doctorRepo := storage.NewDoctorRepository(pool)
	templateRepo := storage.NewTemplateRepository(pool)
	timeOffRepo := storage.NewTimeOffRepository(pool)
	reservationRepo := storage.NewReservationRepository(pool)
	reviewRepo := storage.NewReviewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	codes := confirmation.NewGenerator(reservationRepo.CodeExists)
	bookingSvc := booking.NewService(
		doctorRepo,
		templateRepo,
		timeOffRepo,
		reservationRepo,
		outboxRepo,
		codes,
		logger,
		config.Int("BOOKING_HORIZON_DAYS", booking.DefaultHorizonDays),
	)
	reviewSvc := review.NewService(reviewRepo, reservationRepo, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	publicHandler := handlers.NewPublicHandler(bookingSvc, reviewSvc, logger)
	doctorHandler := handlers.NewDoctorHandler(bookingSvc, reviewSvc, doctorRepo, templateRepo, timeOffRepo, jwtSecret, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", publicHandler.Slots)
	mux.HandleFunc("/api/v1/public/reservations", publicHandler.CreateReservation)
	mux.HandleFunc("/api/v1/public/reservations/lookup", publicHandler.Lookup)
	mux.HandleFunc("/api/v1/public/reservations/cancel", publicHandler.Cancel)
	mux.HandleFunc("/api/v1/public/reviews", publicHandler.AddReview)
	mux.HandleFunc("/api/v1/public/doctors/rating", publicHandler.DoctorRating)
	mux.HandleFunc("/api/v1/reservations", doctorHandler.ListReservations)
	mux.HandleFunc("/api/v1/reservations/confirm", doctorHandler.Confirm)
	mux.HandleFunc("/api/v1/reservations/cancel", doctorHandler.Cancel)
	mux.HandleFunc("/api/v1/reservations/complete", doctorHandler.Complete)
	mux.HandleFunc("/api/v1/templates", doctorHandler.Templates)
	mux.HandleFunc("/api/v1/templates/active", doctorHandler.SetTemplateActive)
	mux.HandleFunc("/api/v1/templates/delete", doctorHandler.DeleteTemplate)
	mux.HandleFunc("/api/v1/timeoff", doctorHandler.TimeOff)
	mux.HandleFunc("/api/v1/timeoff/delete", doctorHandler.DeleteTimeOff)
	mux.HandleFunc("/api/v1/doctors/accepting", doctorHandler.SetAccepting)
	mux.HandleFunc("/api/v1/reviews/respond", doctorHandler.RespondToReview)
	mux.HandleFunc("/api/v1/admin/doctors", doctorHandler.CreateDoctor)
	mux.HandleFunc("/api/v1/admin/reviews/visibility", doctorHandler.SetReviewVisibility)

	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limitMiddleware httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer func() { _ = rdb.Close() }()
		limiter := httpx.NewRedisRateLimiter(rdb, limit, time.Minute, service)
		limitMiddleware = limiter.Middleware(logger, true)
	} else {
		limitMiddleware = httpx.NewRateLimiter(limit, time.Minute).Middleware()
	}

	corsPolicy := httpx.CORSPolicy{
		AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         10 * time.Minute,
	}
	if config.String("CORS_ALLOWED_ORIGINS", "") == "" {
		corsPolicy.AllowedOrigins = nil
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(corsPolicy),
		limitMiddleware,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 30*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
