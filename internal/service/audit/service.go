package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service writes an append-only audit trail of scheduling mutations as
// structured JSON lines. Records are emitted asynchronously and never
// block or fail the mutation they describe.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// NewProductionService builds a service with zap's JSON production config.
func NewProductionService() (*Service, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewService(logger), nil
}

func (s *Service) Record(_ context.Context, action string, appointmentID uuid.UUID, fields map[string]interface{}) {
	go func() {
		zapFields := make([]zap.Field, 0, len(fields)+3)
		zapFields = append(zapFields,
			zap.String("action", action),
			zap.String("appointment_id", appointmentID.String()),
			zap.Time("recorded_at", time.Now()),
		)
		for k, v := range fields {
			zapFields = append(zapFields, zap.Any(k, v))
		}
		s.logger.Info("audit", zapFields...)
	}()
}

// Sync flushes buffered records, for shutdown paths.
func (s *Service) Sync() error {
	return s.logger.Sync()
}
