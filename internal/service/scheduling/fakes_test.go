package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fisioflow/agenda-api/internal/model"
	"github.com/fisioflow/agenda-api/internal/repository"
	"github.com/fisioflow/agenda-api/pkg/locker"
	"github.com/fisioflow/agenda-api/pkg/metrics"
)

// Registered once; promauto panics on duplicate registration.
var testMetrics = metrics.NewMetrics("scheduling_test")

// monday is the anchor for slot tests: 2026-03-02 is a Monday.
var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{items: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = time.Now()
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, f *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.items {
		if f.TherapistID != uuid.Nil && a.TherapistID != f.TherapistID {
			continue
		}
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.StartDate.IsZero() && a.ScheduledAt.Before(f.StartDate) {
			continue
		}
		if !f.EndDate.IsZero() && a.ScheduledAt.After(f.EndDate) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *fakeAppointmentRepo) FindOverlapping(_ context.Context, therapistID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.items {
		if a.TherapistID != therapistID {
			continue
		}
		if !blocksSlot(a, windowStart, windowEnd, excludeID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindPatientOverlapping(_ context.Context, patientID uuid.UUID, windowStart, windowEnd time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Appointment
	for _, a := range r.items {
		if a.PatientID != patientID {
			continue
		}
		if !blocksSlot(a, windowStart, windowEnd, excludeID) {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func blocksSlot(a *model.Appointment, windowStart, windowEnd time.Time, excludeID *uuid.UUID) bool {
	if a.Status != model.AppointmentStatusScheduled && a.Status != model.AppointmentStatusConfirmed {
		return false
	}
	if excludeID != nil && a.ID == *excludeID {
		return false
	}
	return !a.ScheduledAt.Before(windowStart) && !a.ScheduledAt.After(windowEnd)
}

type fakeHoursRepo struct {
	hours map[string]*model.WorkingHours
}

func newFakeHoursRepo() *fakeHoursRepo {
	return &fakeHoursRepo{hours: make(map[string]*model.WorkingHours)}
}

func (r *fakeHoursRepo) key(therapistID uuid.UUID, day int) string {
	return fmt.Sprintf("%s:%d", therapistID, day)
}

func (r *fakeHoursRepo) set(therapistID uuid.UUID, day int, start, end string) {
	r.hours[r.key(therapistID, day)] = &model.WorkingHours{
		TherapistID: therapistID,
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
	}
}

func (r *fakeHoursRepo) FindOne(_ context.Context, therapistID uuid.UUID, day int) (*model.WorkingHours, error) {
	return r.hours[r.key(therapistID, day)], nil
}

func (r *fakeHoursRepo) ListForTherapist(_ context.Context, therapistID uuid.UUID) ([]*model.WorkingHours, error) {
	var out []*model.WorkingHours
	for _, h := range r.hours {
		if h.TherapistID == therapistID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHoursRepo) Upsert(_ context.Context, h *model.WorkingHours) error {
	r.hours[r.key(h.TherapistID, h.DayOfWeek)] = h
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	kinds []model.NotificationKind
}

func (n *fakeNotifier) Notify(_ context.Context, kind model.NotificationKind, _ *model.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *fakeNotifier) sent() []model.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.NotificationKind(nil), n.kinds...)
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuditor) Record(_ context.Context, action string, _ uuid.UUID, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

// busyLocker simulates another booking holding the therapist's lock.
type busyLocker struct{}

func (busyLocker) WithTherapistLock(context.Context, uuid.UUID, func(ctx context.Context) error) error {
	return locker.ErrLockNotAcquired
}

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	hours    *fakeHoursRepo
	notifier *fakeNotifier
	auditor  *fakeAuditor
}

func newFixture() *fixture {
	repo := newFakeAppointmentRepo()
	hours := newFakeHoursRepo()
	notifier := &fakeNotifier{}
	auditor := &fakeAuditor{}
	log := zerolog.Nop()
	svc := NewService(repo, hours, notifier, locker.NoopLocker{}, auditor, testMetrics, &log)
	return &fixture{svc: svc, repo: repo, hours: hours, notifier: notifier, auditor: auditor}
}

// weekdayHours gives the therapist a Mon-Fri 08:00-18:00 schedule.
func (f *fixture) weekdayHours(therapistID uuid.UUID) {
	for day := 1; day <= 5; day++ {
		f.hours.set(therapistID, day, "08:00", "18:00")
	}
}

// seed stores an appointment directly, bypassing the service.
func (f *fixture) seed(therapistID, patientID uuid.UUID, scheduledAt time.Time, duration int, status model.AppointmentStatus) *model.Appointment {
	a := &model.Appointment{
		PatientID:   patientID,
		TherapistID: therapistID,
		ScheduledAt: scheduledAt,
		Duration:    duration,
		Status:      status,
	}
	_ = f.repo.Create(context.Background(), a)
	return a
}
