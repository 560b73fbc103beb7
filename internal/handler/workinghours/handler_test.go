package workinghours

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fisioflow/agenda-api/internal/middleware"
	"github.com/fisioflow/agenda-api/internal/model"
)

type memoryHoursRepo struct {
	hours map[string]*model.WorkingHours
}

func newMemoryHoursRepo() *memoryHoursRepo {
	return &memoryHoursRepo{hours: make(map[string]*model.WorkingHours)}
}

func (r *memoryHoursRepo) key(id uuid.UUID, day int) string {
	return fmt.Sprintf("%s:%d", id, day)
}

func (r *memoryHoursRepo) FindOne(_ context.Context, id uuid.UUID, day int) (*model.WorkingHours, error) {
	return r.hours[r.key(id, day)], nil
}

func (r *memoryHoursRepo) ListForTherapist(_ context.Context, id uuid.UUID) ([]*model.WorkingHours, error) {
	var out []*model.WorkingHours
	for _, h := range r.hours {
		if h.TherapistID == id {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *memoryHoursRepo) Upsert(_ context.Context, h *model.WorkingHours) error {
	r.hours[r.key(h.TherapistID, h.DayOfWeek)] = h
	return nil
}

func setupRouter(repo *memoryHoursRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()
	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func putHours(r *gin.Engine, therapistID uuid.UUID, day string, body gin.H) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/therapists/%s/working-hours/%s", therapistID, day), &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpsertWorkingHours(t *testing.T) {
	repo := newMemoryHoursRepo()
	r := setupRouter(repo)
	therapistID := uuid.New()

	w := putHours(r, therapistID, "1", gin.H{"start_time": "08:00", "end_time": "18:00"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := repo.FindOne(context.Background(), therapistID, 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "08:00", stored.StartTime)
	assert.Equal(t, "18:00", stored.EndTime)
}

func TestUpsertWorkingHours_Invalid(t *testing.T) {
	repo := newMemoryHoursRepo()
	r := setupRouter(repo)
	therapistID := uuid.New()

	cases := []struct {
		name string
		day  string
		body gin.H
	}{
		{"bad clock format", "1", gin.H{"start_time": "8am", "end_time": "18:00"}},
		{"missing end", "1", gin.H{"start_time": "08:00"}},
		{"start after end", "1", gin.H{"start_time": "18:00", "end_time": "08:00"}},
		{"day out of range", "7", gin.H{"start_time": "08:00", "end_time": "18:00"}},
		{"day not numeric", "monday", gin.H{"start_time": "08:00", "end_time": "18:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := putHours(r, therapistID, tc.day, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, repo.hours)
}

func TestListWorkingHours(t *testing.T) {
	repo := newMemoryHoursRepo()
	r := setupRouter(repo)
	therapistID := uuid.New()

	for day := 1; day <= 5; day++ {
		require.NoError(t, repo.Upsert(context.Background(), &model.WorkingHours{
			TherapistID: therapistID,
			DayOfWeek:   day,
			StartTime:   "08:00",
			EndTime:     "18:00",
		}))
	}
	require.NoError(t, repo.Upsert(context.Background(), &model.WorkingHours{
		TherapistID: uuid.New(),
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "17:00",
	}))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/therapists/%s/working-hours", therapistID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Data    []*model.WorkingHours `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data, 5)
}
