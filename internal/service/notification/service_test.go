package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("notification_test")

type capturingBroker struct {
	mu        sync.Mutex
	channel   string
	messages  []interface{}
	published chan struct{}
	err       error
}

func newCapturingBroker() *capturingBroker {
	return &capturingBroker{published: make(chan struct{}, 10)}
}

func (b *capturingBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channel = channel
	if b.err == nil {
		b.messages = append(b.messages, message)
	}
	b.published <- struct{}{}
	return b.err
}

func (b *capturingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *capturingBroker) Close() error { return nil }

func (b *capturingBroker) waitForPublish(t *testing.T) {
	t.Helper()
	select {
	case <-b.published:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was never published")
	}
}

func newTestService(broker *capturingBroker) *Service {
	log := zerolog.Nop()
	return NewService(broker, &log, testMetrics)
}

func sampleAppointment() *model.Appointment {
	a := &model.Appointment{
		PatientID:   uuid.New(),
		TherapistID: uuid.New(),
		ScheduledAt: time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC),
		Duration:    60,
		Status:      model.AppointmentStatusScheduled,
		PatientName: "Maria Silva",
	}
	a.ID = uuid.New()
	return a
}

func TestNotify_PublishesReminderEvent(t *testing.T) {
	broker := newCapturingBroker()
	svc := newTestService(broker)
	appt := sampleAppointment()

	svc.Notify(context.Background(), model.NotificationKindReminder, appt)
	broker.waitForPublish(t)

	assert.Equal(t, Channel, broker.channel)
	require.Len(t, broker.messages, 1)
	event, ok := broker.messages[0].(*model.NotificationEvent)
	require.True(t, ok)
	assert.Equal(t, model.NotificationKindReminder, event.Kind)
	assert.Equal(t, appt.ID, event.AppointmentID)
	assert.Equal(t, appt.PatientID, event.PatientID)
	assert.Equal(t, "Lembrete para Maria Silva: consulta em 02/03/2026 14:00", event.Message)
}

func TestNotify_CancellationAndRescheduleMessages(t *testing.T) {
	broker := newCapturingBroker()
	svc := newTestService(broker)
	appt := sampleAppointment()

	svc.Notify(context.Background(), model.NotificationKindCancellation, appt)
	broker.waitForPublish(t)
	svc.Notify(context.Background(), model.NotificationKindReschedule, appt)
	broker.waitForPublish(t)

	require.Len(t, broker.messages, 2)
	first := broker.messages[0].(*model.NotificationEvent)
	second := broker.messages[1].(*model.NotificationEvent)
	assert.Equal(t, "Consulta de Maria Silva às 14:00 foi cancelada", first.Message)
	assert.Equal(t, "Consulta de Maria Silva reagendada para 02/03/2026 14:00", second.Message)
}

func TestNotify_FallbackPatientName(t *testing.T) {
	broker := newCapturingBroker()
	svc := newTestService(broker)
	appt := sampleAppointment()
	appt.PatientName = ""

	svc.Notify(context.Background(), model.NotificationKindReminder, appt)
	broker.waitForPublish(t)

	event := broker.messages[0].(*model.NotificationEvent)
	assert.Contains(t, event.Message, "Lembrete para Paciente:")
}

func TestNotify_PublishFailureIsSwallowed(t *testing.T) {
	broker := newCapturingBroker()
	broker.err = errors.New("redis down")
	svc := newTestService(broker)

	// Fire-and-forget: the caller must not see the failure.
	svc.Notify(context.Background(), model.NotificationKindReminder, sampleAppointment())
	broker.waitForPublish(t)
	assert.Empty(t, broker.messages)
}
