package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingHoursMinutes(t *testing.T) {
	wh := &WorkingHours{StartTime: "08:00", EndTime: "18:30"}

	start, err := wh.StartMinutes()
	require.NoError(t, err)
	assert.Equal(t, 8*60, start)

	end, err := wh.EndMinutes()
	require.NoError(t, err)
	assert.Equal(t, 18*60+30, end)
}

func TestParseClock_Invalid(t *testing.T) {
	for _, s := range []string{"", "8am", "25:00", "12:60", "12", "12:３0"} {
		wh := &WorkingHours{StartTime: s}
		_, err := wh.StartMinutes()
		assert.Error(t, err, s)
	}
}

func TestAppointmentEndsAt(t *testing.T) {
	a := &Appointment{
		ScheduledAt: time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC),
		Duration:    45,
	}
	assert.Equal(t, time.Date(2026, time.March, 2, 14, 45, 0, 0, time.UTC), a.EndsAt())
}

func TestAppointmentStatusIsValid(t *testing.T) {
	for _, s := range []AppointmentStatus{
		AppointmentStatusScheduled,
		AppointmentStatusConfirmed,
		AppointmentStatusCheckedIn,
		AppointmentStatusInProgress,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
		AppointmentStatusNoShow,
	} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, AppointmentStatus("PENDING").IsValid())
	assert.False(t, AppointmentStatus("scheduled").IsValid())
}
