package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/pkg/messaging"
	"github.com/fisioflow/agenda-api/pkg/metrics"
)

// Channel is the broker channel the delivery worker subscribes to.
const Channel = "notifications"

const publishTimeout = 5 * time.Second

// Service publishes appointment lifecycle notifications. Publishing is
// fire-and-forget: it happens on a detached goroutine and failures are
// logged, never surfaced to the mutation that triggered them. Delivery and
// retries belong to the worker consuming the channel.
type Service struct {
	broker  messaging.Broker
	logger  *zerolog.Logger
	metrics *metrics.Metrics
}

func NewService(broker messaging.Broker, logger *zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		broker:  broker,
		logger:  logger,
		metrics: m,
	}
}

func (s *Service) Notify(_ context.Context, kind model.NotificationKind, appointment *model.Appointment) {
	event := buildEvent(kind, appointment)

	// Detached from the request context so the caller finishing (or
	// failing) cannot cancel the publish.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := s.broker.Publish(ctx, Channel, event); err != nil {
			s.metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
			s.logger.Error().
				Err(err).
				Str("kind", string(kind)).
				Str("appointment_id", appointment.ID.String()).
				Msg("failed to publish notification")
			return
		}
		s.metrics.NotificationsPublished.WithLabelValues(string(kind)).Inc()
	}()
}

func buildEvent(kind model.NotificationKind, appointment *model.Appointment) *model.NotificationEvent {
	patientName := appointment.PatientName
	if patientName == "" {
		patientName = "Paciente"
	}

	var message string
	switch kind {
	case model.NotificationKindReminder:
		message = fmt.Sprintf("Lembrete para %s: consulta em %s", patientName, appointment.ScheduledAt.Format("02/01/2006 15:04"))
	case model.NotificationKindCancellation:
		message = fmt.Sprintf("Consulta de %s às %s foi cancelada", patientName, appointment.ScheduledAt.Format("15:04"))
	case model.NotificationKindReschedule:
		message = fmt.Sprintf("Consulta de %s reagendada para %s", patientName, appointment.ScheduledAt.Format("02/01/2006 15:04"))
	}

	return &model.NotificationEvent{
		ID:            uuid.New(),
		Kind:          kind,
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		PatientName:   appointment.PatientName,
		TherapistName: appointment.TherapistName,
		ScheduledAt:   appointment.ScheduledAt,
		Message:       message,
		CreatedAt:     time.Now(),
	}
}
