package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fisioflow/agenda-api/internal/model"
)

func (r *workingHoursRepository) FindOne(ctx context.Context, therapistID uuid.UUID, dayOfWeek int) (*model.WorkingHours, error) {
	query := `
		SELECT id, therapist_id, day_of_week, start_time, end_time,
			   created_at, updated_at
		FROM working_hours
		WHERE therapist_id = $1 AND day_of_week = $2
	`
	var hours model.WorkingHours
	err := r.db.GetContext(ctx, &hours, query, therapistID, dayOfWeek)
	if errors.Is(err, sql.ErrNoRows) {
		// No record means the therapist does not work that day.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get working hours: %w", err)
	}
	return &hours, nil
}

func (r *workingHoursRepository) ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.WorkingHours, error) {
	query := `
		SELECT id, therapist_id, day_of_week, start_time, end_time,
			   created_at, updated_at
		FROM working_hours
		WHERE therapist_id = $1
		ORDER BY day_of_week ASC
	`
	var hours []*model.WorkingHours
	err := r.db.SelectContext(ctx, &hours, query, therapistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	return hours, nil
}

func (r *workingHoursRepository) Upsert(ctx context.Context, hours *model.WorkingHours) error {
	query := `
		INSERT INTO working_hours (
			id, therapist_id, day_of_week, start_time, end_time,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (therapist_id, day_of_week)
		DO UPDATE SET start_time = $4, end_time = $5, updated_at = $7
	`
	if hours.ID == uuid.Nil {
		hours.ID = uuid.New()
	}
	if hours.CreatedAt.IsZero() {
		hours.CreatedAt = time.Now()
	}
	hours.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		hours.ID,
		hours.TherapistID,
		hours.DayOfWeek,
		hours.StartTime,
		hours.EndTime,
		hours.CreatedAt,
		hours.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert working hours: %w", err)
	}
	return nil
}
