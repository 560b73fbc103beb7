package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
	"github.com/fisioflow/agenda-api/pkg/logger"
)

type channelBroker struct {
	msgs chan []byte
}

func (b *channelBroker) Publish(context.Context, string, interface{}) error { return nil }

func (b *channelBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.msgs, nil
}

func (b *channelBroker) Close() error { return nil }

type staticContacts struct {
	email string
	err   error
}

func (c *staticContacts) GetEmail(context.Context, uuid.UUID) (string, error) {
	return c.email, c.err
}

type recordingEmail struct {
	mu       sync.Mutex
	failures int
	sent     []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (e *recordingEmail) SendCustom(_ context.Context, to, subject, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failures > 0 {
		e.failures--
		return errors.New("smtp unavailable")
	}
	e.sent = append(e.sent, sentMail{to: to, subject: subject, body: content})
	return nil
}

func (e *recordingEmail) delivered() []sentMail {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sentMail(nil), e.sent...)
}

func testEvent(kind model.NotificationKind) []byte {
	event := model.NotificationEvent{
		ID:            uuid.New(),
		Kind:          kind,
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		ScheduledAt:   time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC),
		Message:       "Lembrete para Maria Silva: consulta em 02/03/2026 14:00",
		CreatedAt:     time.Now(),
	}
	payload, _ := json.Marshal(event)
	return payload
}

func newTestNotifier(contacts *staticContacts, mail *recordingEmail) *Notifier {
	return NewNotifier(&channelBroker{}, contacts, mail, logger.NewLogger(nil), NotifierConfig{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
}

func TestHandle_DeliversEmail(t *testing.T) {
	contacts := &staticContacts{email: "maria@example.com"}
	mail := &recordingEmail{}
	n := newTestNotifier(contacts, mail)

	n.handle(context.Background(), testEvent(model.NotificationKindReminder))

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "maria@example.com", mail.sent[0].to)
	assert.Equal(t, "Lembrete de consulta", mail.sent[0].subject)
	assert.Contains(t, mail.sent[0].body, "Lembrete para Maria Silva")
}

func TestHandle_SubjectPerKind(t *testing.T) {
	cases := []struct {
		kind    model.NotificationKind
		subject string
	}{
		{model.NotificationKindReminder, "Lembrete de consulta"},
		{model.NotificationKindCancellation, "Consulta cancelada"},
		{model.NotificationKindReschedule, "Consulta reagendada"},
	}
	for _, tc := range cases {
		contacts := &staticContacts{email: "maria@example.com"}
		mail := &recordingEmail{}
		n := newTestNotifier(contacts, mail)

		n.handle(context.Background(), testEvent(tc.kind))

		require.Len(t, mail.sent, 1)
		assert.Equal(t, tc.subject, mail.sent[0].subject)
	}
}

func TestHandle_RetriesUntilSuccess(t *testing.T) {
	contacts := &staticContacts{email: "maria@example.com"}
	mail := &recordingEmail{failures: 2}
	n := newTestNotifier(contacts, mail)

	n.handle(context.Background(), testEvent(model.NotificationKindReminder))

	require.Len(t, mail.sent, 1)
}

func TestHandle_GivesUpAfterMaxRetries(t *testing.T) {
	contacts := &staticContacts{email: "maria@example.com"}
	mail := &recordingEmail{failures: 10}
	n := newTestNotifier(contacts, mail)

	n.handle(context.Background(), testEvent(model.NotificationKindReminder))

	assert.Empty(t, mail.sent)
	assert.Equal(t, 7, mail.failures)
}

func TestHandle_MissingContactSkipsDelivery(t *testing.T) {
	contacts := &staticContacts{err: repository.ErrNotFound}
	mail := &recordingEmail{}
	n := newTestNotifier(contacts, mail)

	n.handle(context.Background(), testEvent(model.NotificationKindReminder))

	assert.Empty(t, mail.sent)
}

func TestHandle_MalformedPayloadIgnored(t *testing.T) {
	contacts := &staticContacts{email: "maria@example.com"}
	mail := &recordingEmail{}
	n := newTestNotifier(contacts, mail)

	n.handle(context.Background(), []byte("{not json"))

	assert.Empty(t, mail.sent)
}

func TestStart_ConsumesUntilContextCancelled(t *testing.T) {
	broker := &channelBroker{msgs: make(chan []byte, 1)}
	contacts := &staticContacts{email: "maria@example.com"}
	mail := &recordingEmail{}
	n := NewNotifier(broker, contacts, mail, logger.NewLogger(nil), NotifierConfig{
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Start(ctx) }()

	broker.msgs <- testEvent(model.NotificationKindReminder)

	require.Eventually(t, func() bool { return len(mail.delivered()) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}
}
