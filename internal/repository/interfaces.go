package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// AppointmentRepository handles appointment persistence. The scheduling
	// service never caches appointments between calls; every operation
	// re-reads through this interface.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)

		// FindOverlapping returns the therapist's SCHEDULED/CONFIRMED
		// appointments whose scheduled_at falls inside the window. This is a
		// coarse prefilter; exact interval overlap is computed in memory.
		FindOverlapping(ctx context.Context, therapistID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)

		// FindPatientOverlapping is the same window query keyed by patient,
		// across all therapists.
		FindPatientOverlapping(ctx context.Context, patientID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
	}

	// PatientContactRepository resolves delivery addresses for the
	// notification worker. Patients are owned elsewhere; this is the only
	// patient data the scheduling system touches.
	PatientContactRepository interface {
		GetEmail(ctx context.Context, patientID uuid.UUID) (string, error)
	}

	// WorkingHoursRepository is read-mostly; the scheduling core only reads.
	WorkingHoursRepository interface {
		// FindOne returns nil (no error) when the therapist has no working
		// hours for that weekday.
		FindOne(ctx context.Context, therapistID uuid.UUID, dayOfWeek int) (*model.WorkingHours, error)
		ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.WorkingHours, error)
		Upsert(ctx context.Context, hours *model.WorkingHours) error
	}
)
