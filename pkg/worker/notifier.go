package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fisioflow/agenda-api/internal/email"
	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
	"github.com/fisioflow/agenda-api/internal/service/notification"
	"github.com/fisioflow/agenda-api/pkg/logger"
	"github.com/fisioflow/agenda-api/pkg/messaging"
)

var (
	deliveredNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "The total number of delivered notifications",
	}, []string{"kind"})
	failedDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_delivery_failures_total",
		Help: "The total number of notification delivery failures",
	}, []string{"kind"})
	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notification_delivery_duration_seconds",
		Help:    "Time spent delivering notifications",
		Buckets: prometheus.DefBuckets,
	})
)

type NotifierConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// Notifier consumes notification events from the broker and delivers them
// by email. Retries live here, on purpose: the scheduling core publishes
// fire-and-forget and never retries.
type Notifier struct {
	broker   messaging.Broker
	contacts repository.PatientContactRepository
	emailSvc email.Service
	logger   *logger.Logger
	config   NotifierConfig
}

func NewNotifier(
	broker messaging.Broker,
	contacts repository.PatientContactRepository,
	emailSvc email.Service,
	log *logger.Logger,
	config NotifierConfig,
) *Notifier {
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 5 * time.Second
	}
	return &Notifier{
		broker:   broker,
		contacts: contacts,
		emailSvc: emailSvc,
		logger:   log,
		config:   config,
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	msgs, err := n.broker.Subscribe(ctx, notification.Channel)
	if err != nil {
		return err
	}

	n.logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("notification worker shutting down")
			return nil
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			n.handle(ctx, payload)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, payload []byte) {
	start := time.Now()
	defer func() {
		deliveryDuration.Observe(time.Since(start).Seconds())
	}()

	var event model.NotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		n.logger.Error(err, "failed to decode notification event")
		return
	}

	to, err := n.contacts.GetEmail(ctx, event.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			n.logger.Warn("no contact email for patient", "patient_id", event.PatientID.String())
			return
		}
		failedDeliveries.WithLabelValues(string(event.Kind)).Inc()
		n.logger.Error(err, "failed to resolve patient contact")
		return
	}

	subject := subjectFor(event.Kind)

	for attempt := 1; attempt <= n.config.MaxRetries; attempt++ {
		err = n.emailSvc.SendCustom(ctx, to, subject, event.Message)
		if err == nil {
			deliveredNotifications.WithLabelValues(string(event.Kind)).Inc()
			return
		}
		if attempt < n.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.config.RetryDelay * time.Duration(attempt)):
			}
		}
	}

	failedDeliveries.WithLabelValues(string(event.Kind)).Inc()
	n.logger.Error(err, "failed to deliver notification",
		"kind", string(event.Kind),
		"appointment_id", event.AppointmentID.String(),
	)
}

func subjectFor(kind model.NotificationKind) string {
	switch kind {
	case model.NotificationKindCancellation:
		return "Consulta cancelada"
	case model.NotificationKindReschedule:
		return "Consulta reagendada"
	default:
		return "Lembrete de consulta"
	}
}
