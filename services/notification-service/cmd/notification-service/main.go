package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/docslot/docslot/libs/config"
	"github.com/docslot/docslot/libs/db"
	"github.com/docslot/docslot/libs/httpx"
	"github.com/docslot/docslot/libs/kafkax"
	otelx "github.com/docslot/docslot/libs/otel"
	"github.com/docslot/docslot/libs/runtime"
	"github.com/docslot/docslot/services/notification-service/internal/consumer"
	"github.com/docslot/docslot/services/notification-service/internal/dispatch"
	"github.com/docslot/docslot/services/notification-service/internal/inbox"
	"github.com/docslot/docslot/services/notification-service/internal/storage"
)

var lifecycleTopics = []string{
	"scheduling.reservation.created.v1",
	"scheduling.reservation.confirmed.v1",
	"scheduling.reservation.cancelled.v1",
	"scheduling.reservation.completed.v1",
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8082")
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

	var sender dispatch.Sender
	if url := config.String("SMS_WEBHOOK_URL", ""); url != "" {
		sender = dispatch.NewWebhookSender(url, config.String("SMS_WEBHOOK_TOKEN", ""))
	} else {
		logger.Warn("no sms webhook configured; using noop sender")
		sender = dispatch.NewNoopSender()
	}

	deliveries := storage.NewDeliveryRepository(pool)
	inboxRepo := inbox.NewRepository(pool)
	brokers := config.String("KAFKA_BROKERS", "")

	handle := func(ctx context.Context, msg kafka.Message) error {
		var evt dispatch.ReservationEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if evt.PatientPhone == "" {
			logger.Warn("event without recipient", "topic", msg.Topic, "reservation_id", evt.ReservationID)
			return nil
		}
		body := dispatch.RenderMessage(msg.Topic, evt)
		if body == "" {
			return nil
		}

		delivery := storage.Delivery{
			ReservationID: evt.ReservationID,
			EventType:     msg.Topic,
			Recipient:     evt.PatientPhone,
			Body:          body,
			ProviderID:    sender.ProviderID(),
			Status:        storage.StatusSent,
		}
		if err := sender.Send(ctx, evt.PatientPhone, body); err != nil {
			logger.Error("sms send failed", "err", err, "reservation_id", evt.ReservationID)
			delivery.Status = storage.StatusFailed
			delivery.ErrorReason = err.Error()
		}
		if err := deliveries.Insert(ctx, delivery); err != nil {
			logger.Error("delivery log insert failed", "err", err)
		}
		return nil
	}

	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	for _, topic := range lifecycleTopics {
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, handle)
		go eventConsumer.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "notification")
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
