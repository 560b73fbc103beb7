package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
)

// selectAppointment joins patient and therapist display names so reads come
// back ready for display without extra round trips.
const selectAppointment = `
	SELECT a.id, a.patient_id, a.therapist_id, a.scheduled_at, a.duration,
		   a.status, a.price, a.notes, a.is_paid, a.created_at, a.updated_at,
		   COALESCE(pu.name, '') AS patient_name,
		   COALESCE(tu.name, '') AS therapist_name
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN users pu ON pu.id = p.user_id
	LEFT JOIN therapists t ON t.id = a.therapist_id
	LEFT JOIN users tu ON tu.id = t.user_id
`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, therapist_id, scheduled_at, duration,
			status, price, notes, is_paid, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.TherapistID,
		appointment.ScheduledAt,
		appointment.Duration,
		appointment.Status,
		appointment.Price,
		appointment.Notes,
		appointment.IsPaid,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := selectAppointment + ` WHERE a.id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, duration = $2, status = $3, price = $4,
			notes = $5, is_paid = $6, updated_at = $7
		WHERE id = $8
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.ScheduledAt,
		appointment.Duration,
		appointment.Status,
		appointment.Price,
		appointment.Notes,
		appointment.IsPaid,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := selectAppointment + ` WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.TherapistID != uuid.Nil {
		query += fmt.Sprintf(" AND a.therapist_id = $%d", argCount)
		args = append(args, filters.TherapistID)
		argCount++
	}

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND a.patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND a.scheduled_at >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND a.scheduled_at <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY a.scheduled_at ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindOverlapping(ctx context.Context, therapistID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := selectAppointment + `
		WHERE a.therapist_id = $1
		AND a.status IN ('SCHEDULED', 'CONFIRMED')
		AND a.scheduled_at >= $2
		AND a.scheduled_at <= $3
	`
	args := []interface{}{therapistID, windowStart, windowEnd}

	if excludeID != nil {
		query += " AND a.id != $4"
		args = append(args, *excludeID)
	}

	query += " ORDER BY a.scheduled_at ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) FindPatientOverlapping(ctx context.Context, patientID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := selectAppointment + `
		WHERE a.patient_id = $1
		AND a.status IN ('SCHEDULED', 'CONFIRMED')
		AND a.scheduled_at >= $2
		AND a.scheduled_at <= $3
	`
	args := []interface{}{patientID, windowStart, windowEnd}

	if excludeID != nil {
		query += " AND a.id != $4"
		args = append(args, *excludeID)
	}

	query += " ORDER BY a.scheduled_at ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find patient appointments: %w", err)
	}
	return appointments, nil
}
