package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed  AppointmentStatus = "CONFIRMED"
	AppointmentStatusCheckedIn  AppointmentStatus = "CHECKED_IN"
	AppointmentStatusInProgress AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted  AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled  AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow     AppointmentStatus = "NO_SHOW"
)

// IsValid reports whether s is one of the known lifecycle statuses.
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusCheckedIn, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled,
		AppointmentStatusNoShow:
		return true
	}
	return false
}

// Appointment is a single physiotherapy session. Duration is minutes;
// the occupied interval is [ScheduledAt, ScheduledAt+Duration).
type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	TherapistID uuid.UUID         `db:"therapist_id" json:"therapist_id"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Duration    int               `db:"duration" json:"duration"`
	Status      AppointmentStatus `db:"status" json:"status"`
	Price       float64           `db:"price" json:"price"`
	Notes       string            `db:"notes" json:"notes,omitempty"`
	IsPaid      bool              `db:"is_paid" json:"is_paid"`

	// Display names joined in on reads, never written back.
	PatientName   string `db:"patient_name" json:"patient_name,omitempty"`
	TherapistName string `db:"therapist_name" json:"therapist_name,omitempty"`
}

// EndsAt returns the exclusive end of the occupied interval.
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.Duration) * time.Minute)
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID          `json:"patient_id" binding:"required"`
	TherapistID uuid.UUID          `json:"therapist_id" binding:"required"`
	ScheduledAt time.Time          `json:"scheduled_at" binding:"required"`
	Duration    int                `json:"duration" binding:"required,min=15,max=480"`
	Notes       string             `json:"notes" binding:"max=2000"`
	Status      *AppointmentStatus `json:"status" binding:"omitempty,appointment_status"`
	Price       *float64           `json:"price" binding:"omitempty,min=0"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time         `json:"scheduled_at"`
	Duration    *int               `json:"duration" binding:"omitempty,min=15,max=480"`
	Status      *AppointmentStatus `json:"status" binding:"omitempty,appointment_status"`
	Notes       *string            `json:"notes" binding:"omitempty,max=2000"`
	Price       *float64           `json:"price" binding:"omitempty,min=0"`
	IsPaid      *bool              `json:"is_paid"`
}

type RescheduleAppointmentRequest struct {
	NewDate time.Time `json:"new_date" binding:"required"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type AppointmentFilters struct {
	TherapistID uuid.UUID
	PatientID   uuid.UUID
	Status      AppointmentStatus
	StartDate   time.Time
	EndDate     time.Time
}
