package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
)

// WorkingHoursRepository caches per-weekday lookups in front of the
// database. Working hours change rarely while every availability check
// reads them, so a short TTL saves a round trip per check without letting
// schedule edits go stale for long.
type WorkingHoursRepository struct {
	inner repository.WorkingHoursRepository
	cache *gocache.Cache
}

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		TTL:             5 * time.Minute,
		CleanupInterval: 15 * time.Minute,
	}
}

func NewWorkingHoursRepository(inner repository.WorkingHoursRepository, cfg Config) *WorkingHoursRepository {
	return &WorkingHoursRepository{
		inner: inner,
		cache: gocache.New(cfg.TTL, cfg.CleanupInterval),
	}
}

func cacheKey(therapistID uuid.UUID, dayOfWeek int) string {
	return fmt.Sprintf("%s:%d", therapistID, dayOfWeek)
}

func (r *WorkingHoursRepository) FindOne(ctx context.Context, therapistID uuid.UUID, dayOfWeek int) (*model.WorkingHours, error) {
	key := cacheKey(therapistID, dayOfWeek)
	if cached, ok := r.cache.Get(key); ok {
		// A cached nil records "does not work that day".
		if cached == nil {
			return nil, nil
		}
		return cached.(*model.WorkingHours), nil
	}

	hours, err := r.inner.FindOne(ctx, therapistID, dayOfWeek)
	if err != nil {
		return nil, err
	}

	if hours == nil {
		r.cache.Set(key, nil, gocache.DefaultExpiration)
	} else {
		r.cache.Set(key, hours, gocache.DefaultExpiration)
	}
	return hours, nil
}

func (r *WorkingHoursRepository) ListForTherapist(ctx context.Context, therapistID uuid.UUID) ([]*model.WorkingHours, error) {
	return r.inner.ListForTherapist(ctx, therapistID)
}

func (r *WorkingHoursRepository) Upsert(ctx context.Context, hours *model.WorkingHours) error {
	if err := r.inner.Upsert(ctx, hours); err != nil {
		return err
	}
	r.cache.Delete(cacheKey(hours.TherapistID, hours.DayOfWeek))
	return nil
}
