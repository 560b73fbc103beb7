package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
)

// CheckParams describes a proposed slot. PatientID is optional; when set,
// the patient's own agenda is checked for double-booking as well.
// ExcludeAppointmentID keeps an appointment being moved from conflicting
// with itself.
type CheckParams struct {
	TherapistID          uuid.UUID
	PatientID            uuid.UUID
	ScheduledAt          time.Time
	Duration             int
	ExcludeAppointmentID *uuid.UUID
}

// overlapWindow is the coarse prefilter around the proposed time. Exact
// interval overlap is computed in memory on the candidates it returns.
const overlapWindow = 24 * time.Hour

// CheckAvailability evaluates whether the proposed slot is bookable. It
// only reads; conflicts are reported as data so callers can show every
// reason at once instead of stopping at the first.
func (s *Service) CheckAvailability(ctx context.Context, p CheckParams) (*model.AvailabilityResult, error) {
	s.metrics.AvailabilityChecks.Inc()

	conflicts := make([]model.Conflict, 0)

	whConflicts, err := s.checkWorkingHours(ctx, p)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, whConflicts...)

	overlapConflicts, err := s.checkTherapistOverlap(ctx, p)
	if err != nil {
		return nil, err
	}
	conflicts = append(conflicts, overlapConflicts...)

	if p.PatientID != uuid.Nil {
		patientConflicts, err := s.checkPatientOverlap(ctx, p)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, patientConflicts...)
	}

	for _, c := range conflicts {
		s.metrics.ConflictsDetected.WithLabelValues(string(c.Type)).Inc()
	}

	if len(conflicts) > 0 {
		s.logger.Debug().
			Str("therapist_id", p.TherapistID.String()).
			Time("scheduled_at", p.ScheduledAt).
			Int("conflicts", len(conflicts)).
			Msg("slot unavailable")
	}

	return &model.AvailabilityResult{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

// checkWorkingHours verifies the proposed interval sits inside the
// therapist's window for that weekday. The containment check compares
// time-of-day minute offsets; the end offset is not wrapped at midnight,
// so an interval crossing midnight always falls outside the window.
func (s *Service) checkWorkingHours(ctx context.Context, p CheckParams) ([]model.Conflict, error) {
	hours, err := s.hoursRepo.FindOne(ctx, p.TherapistID, int(p.ScheduledAt.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load working hours: %w", err)
	}

	if hours == nil {
		return []model.Conflict{{
			Type:    model.ConflictTypeWorkingHours,
			Message: "Fisioterapeuta não trabalha neste dia",
		}}, nil
	}

	workStart, err := hours.StartMinutes()
	if err != nil {
		return nil, fmt.Errorf("malformed working hours for therapist %s: %w", p.TherapistID, err)
	}
	workEnd, err := hours.EndMinutes()
	if err != nil {
		return nil, fmt.Errorf("malformed working hours for therapist %s: %w", p.TherapistID, err)
	}

	startOffset := p.ScheduledAt.Hour()*60 + p.ScheduledAt.Minute()
	endOffset := startOffset + p.Duration

	// Boundaries are inclusive: starting at the opening time and ending
	// exactly at the closing time are both fine.
	if startOffset < workStart || endOffset > workEnd {
		return []model.Conflict{{
			Type:    model.ConflictTypeWorkingHours,
			Message: fmt.Sprintf("Horário fora do expediente (%s - %s)", hours.StartTime, hours.EndTime),
		}}, nil
	}

	return nil, nil
}

func (s *Service) checkTherapistOverlap(ctx context.Context, p CheckParams) ([]model.Conflict, error) {
	proposedStart := p.ScheduledAt
	proposedEnd := p.ScheduledAt.Add(time.Duration(p.Duration) * time.Minute)

	candidates, err := s.repo.FindOverlapping(ctx,
		p.TherapistID,
		p.ScheduledAt.Add(-overlapWindow),
		p.ScheduledAt.Add(overlapWindow),
		p.ExcludeAppointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}

	var conflicts []model.Conflict
	for _, candidate := range candidates {
		if overlaps(proposedStart, proposedEnd, candidate.ScheduledAt, candidate.EndsAt()) {
			c := candidate
			conflicts = append(conflicts, model.Conflict{
				Type:                   model.ConflictTypeOverlap,
				Message:                fmt.Sprintf("Conflito com consulta às %s", candidate.ScheduledAt.Format("15:04")),
				ConflictingAppointment: c,
			})
		}
	}
	return conflicts, nil
}

func (s *Service) checkPatientOverlap(ctx context.Context, p CheckParams) ([]model.Conflict, error) {
	proposedStart := p.ScheduledAt
	proposedEnd := p.ScheduledAt.Add(time.Duration(p.Duration) * time.Minute)

	candidates, err := s.repo.FindPatientOverlapping(ctx,
		p.PatientID,
		p.ScheduledAt.Add(-overlapWindow),
		p.ScheduledAt.Add(overlapWindow),
		p.ExcludeAppointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find patient appointments: %w", err)
	}

	var conflicts []model.Conflict
	for _, candidate := range candidates {
		if overlaps(proposedStart, proposedEnd, candidate.ScheduledAt, candidate.EndsAt()) {
			conflicts = append(conflicts, model.Conflict{
				Type:    model.ConflictTypePatientUnavailable,
				Message: fmt.Sprintf("Paciente já tem consulta às %s", candidate.ScheduledAt.Format("15:04")),
			})
		}
	}
	return conflicts, nil
}

// overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// share at least one instant.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
