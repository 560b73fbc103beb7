package scheduling

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
	"github.com/fisioflow/agenda-api/pkg/errors"
	"github.com/fisioflow/agenda-api/pkg/locker"
	"github.com/fisioflow/agenda-api/pkg/metrics"
)

// NotificationSink receives lifecycle notifications. Implementations are
// fire-and-forget: they must never block the mutation or surface failures.
type NotificationSink interface {
	Notify(ctx context.Context, kind model.NotificationKind, appointment *model.Appointment)
}

// AuditTrail records scheduling mutations out of band.
type AuditTrail interface {
	Record(ctx context.Context, action string, appointmentID uuid.UUID, fields map[string]interface{})
}

// Service owns availability evaluation and the appointment lifecycle.
// It holds no appointment state between calls; every operation re-reads
// from the repository.
type Service struct {
	repo      repository.AppointmentRepository
	hoursRepo repository.WorkingHoursRepository
	notifier  NotificationSink
	locker    locker.Locker
	auditor   AuditTrail
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
}

func NewService(
	repo repository.AppointmentRepository,
	hoursRepo repository.WorkingHoursRepository,
	notifier NotificationSink,
	lk locker.Locker,
	auditor AuditTrail,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		hoursRepo: hoursRepo,
		notifier:  notifier,
		locker:    lk,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// CreateAppointment books a new slot. The availability check and the write
// run under the therapist's booking lock so two concurrent creates cannot
// both pass the check before either persists.
func (s *Service) CreateAppointment(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	timer := s.startTimer("create")
	defer timer()

	appointment := &model.Appointment{
		PatientID:   req.PatientID,
		TherapistID: req.TherapistID,
		ScheduledAt: req.ScheduledAt,
		Duration:    req.Duration,
		Notes:       req.Notes,
		Status:      model.AppointmentStatusScheduled,
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}
	if req.Price != nil {
		appointment.Price = *req.Price
	}

	err := s.locker.WithTherapistLock(ctx, req.TherapistID, func(lockCtx context.Context) error {
		result, err := s.CheckAvailability(lockCtx, CheckParams{
			TherapistID: req.TherapistID,
			PatientID:   req.PatientID,
			ScheduledAt: req.ScheduledAt,
			Duration:    req.Duration,
		})
		if err != nil {
			return err
		}
		if !result.Available {
			return errors.NewConflict("Conflitos detectados", result.Messages())
		}

		return s.repo.Create(lockCtx, appointment)
	})
	if err != nil {
		if stderrors.Is(err, locker.ErrLockNotAcquired) {
			s.metrics.LockContention.Inc()
			return nil, errors.NewConflict("Agenda em uso, tente novamente", nil)
		}
		return nil, err
	}

	s.metrics.AppointmentsCreated.Inc()

	created, err := s.repo.Get(ctx, appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload appointment: %w", err)
	}

	s.notifier.Notify(ctx, model.NotificationKindReminder, created)
	s.auditor.Record(ctx, "create", created.ID, map[string]interface{}{
		"therapist_id": created.TherapistID,
		"patient_id":   created.PatientID,
		"scheduled_at": created.ScheduledAt,
		"duration":     created.Duration,
	})

	return created, nil
}

// UpdateAppointment applies a partial update. Changing the time slot
// re-runs the availability check against the new values, excluding the
// appointment itself; other fields bypass the check.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	timer := s.startTimer("update")
	defer timer()

	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, errors.NewBadRequest("appointment is cancelled", nil)
	}

	slotChanged := req.ScheduledAt != nil || req.Duration != nil

	apply := func() {
		if req.ScheduledAt != nil {
			appointment.ScheduledAt = *req.ScheduledAt
		}
		if req.Duration != nil {
			appointment.Duration = *req.Duration
		}
		if req.Status != nil {
			appointment.Status = *req.Status
		}
		if req.Notes != nil {
			appointment.Notes = *req.Notes
		}
		if req.Price != nil {
			appointment.Price = *req.Price
		}
		if req.IsPaid != nil {
			appointment.IsPaid = *req.IsPaid
		}
	}

	if slotChanged {
		newTime := appointment.ScheduledAt
		if req.ScheduledAt != nil {
			newTime = *req.ScheduledAt
		}
		newDuration := appointment.Duration
		if req.Duration != nil {
			newDuration = *req.Duration
		}

		err = s.locker.WithTherapistLock(ctx, appointment.TherapistID, func(lockCtx context.Context) error {
			result, err := s.CheckAvailability(lockCtx, CheckParams{
				TherapistID:          appointment.TherapistID,
				PatientID:            appointment.PatientID,
				ScheduledAt:          newTime,
				Duration:             newDuration,
				ExcludeAppointmentID: &id,
			})
			if err != nil {
				return err
			}
			if !result.Available {
				return errors.NewConflict("Conflitos detectados", result.Messages())
			}

			apply()
			return s.repo.Update(lockCtx, appointment)
		})
	} else {
		apply()
		err = s.repo.Update(ctx, appointment)
	}
	if err != nil {
		if stderrors.Is(err, locker.ErrLockNotAcquired) {
			s.metrics.LockContention.Inc()
			return nil, errors.NewConflict("Agenda em uso, tente novamente", nil)
		}
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("appointment", err)
		}
		return nil, err
	}

	s.auditor.Record(ctx, "update", id, map[string]interface{}{
		"slot_changed": slotChanged,
	})

	return s.load(ctx, id)
}

// CancelAppointment marks the appointment CANCELLED. The reason, when
// given, is appended to the existing notes so prior clinical notes are
// preserved. The transition is terminal.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	timer := s.startTimer("cancel")
	defer timer()

	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, errors.NewBadRequest("appointment is already cancelled", nil)
	}

	appointment.Status = model.AppointmentStatusCancelled
	if reason != "" {
		appointment.Notes = fmt.Sprintf("%s\n\nCancelado: %s", appointment.Notes, reason)
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.metrics.AppointmentsCancelled.Inc()

	cancelled, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, model.NotificationKindCancellation, cancelled)
	s.auditor.Record(ctx, "cancel", id, map[string]interface{}{
		"reason": reason,
	})

	return cancelled, nil
}

// RescheduleAppointment moves an appointment to newDate, re-validating
// availability for the same therapist and duration. A successful move
// restarts the lifecycle: status goes back to SCHEDULED even if it had
// progressed.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newDate time.Time) (*model.Appointment, error) {
	timer := s.startTimer("reschedule")
	defer timer()

	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, errors.NewBadRequest("appointment is cancelled", nil)
	}

	err = s.locker.WithTherapistLock(ctx, appointment.TherapistID, func(lockCtx context.Context) error {
		result, err := s.CheckAvailability(lockCtx, CheckParams{
			TherapistID:          appointment.TherapistID,
			PatientID:            appointment.PatientID,
			ScheduledAt:          newDate,
			Duration:             appointment.Duration,
			ExcludeAppointmentID: &id,
		})
		if err != nil {
			return err
		}
		if !result.Available {
			return errors.NewConflict("Novo horário não disponível", result.Messages())
		}

		appointment.ScheduledAt = newDate
		appointment.Status = model.AppointmentStatusScheduled
		return s.repo.Update(lockCtx, appointment)
	})
	if err != nil {
		if stderrors.Is(err, locker.ErrLockNotAcquired) {
			s.metrics.LockContention.Inc()
			return nil, errors.NewConflict("Agenda em uso, tente novamente", nil)
		}
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("appointment", err)
		}
		return nil, err
	}

	s.metrics.AppointmentsRescheduled.Inc()

	rescheduled, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, model.NotificationKindReschedule, rescheduled)
	s.auditor.Record(ctx, "reschedule", id, map[string]interface{}{
		"new_date": newDate,
	})

	return rescheduled, nil
}

// GetAppointment returns one appointment with display names populated.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.load(ctx, id)
}

// GetTherapistAppointments returns the therapist's appointments with
// scheduled_at inside [start, end], ascending.
func (s *Service) GetTherapistAppointments(ctx context.Context, therapistID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{
		TherapistID: therapistID,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list therapist appointments: %w", err)
	}
	return appointments, nil
}

// GetPatientAppointments returns the patient's appointments with
// scheduled_at inside [start, end], ascending.
func (s *Service) GetPatientAppointments(ctx context.Context, patientID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{
		PatientID: patientID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}

// ListAppointments applies arbitrary filters, for administrative views.
func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return appointment, nil
}

func (s *Service) startTimer(operation string) func() {
	start := time.Now()
	return func() {
		s.metrics.SchedulingLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
