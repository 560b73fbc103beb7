package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindReminder     NotificationKind = "reminder"
	NotificationKindCancellation NotificationKind = "cancellation"
	NotificationKindReschedule   NotificationKind = "reschedule"
)

// NotificationEvent is the payload published to the notifications channel.
// Delivery (email, WhatsApp) happens out of band in the worker.
type NotificationEvent struct {
	ID            uuid.UUID        `json:"id"`
	Kind          NotificationKind `json:"kind"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	PatientID     uuid.UUID        `json:"patient_id"`
	PatientName   string           `json:"patient_name,omitempty"`
	TherapistName string           `json:"therapist_name,omitempty"`
	ScheduledAt   time.Time        `json:"scheduled_at"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
}
