package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fisioflow/agenda-api/internal/repository"
)

type patientContactRepository struct {
	db *sqlx.DB
}

func NewPatientContactRepository(db *sqlx.DB) repository.PatientContactRepository {
	return &patientContactRepository{db: db}
}

func (r *patientContactRepository) GetEmail(ctx context.Context, patientID uuid.UUID) (string, error) {
	query := `
		SELECT u.email
		FROM patients p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var email string
	err := r.db.GetContext(ctx, &email, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get patient email: %w", err)
	}
	return email, nil
}
