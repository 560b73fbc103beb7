package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// WorkingHours is the recurring weekly window during which a therapist
// accepts appointments. At most one record exists per (therapist, weekday);
// absence of a record means the therapist does not work that day.
type WorkingHours struct {
	Base
	TherapistID uuid.UUID `db:"therapist_id" json:"therapist_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
}

// StartMinutes returns the opening time as minutes from midnight.
func (w *WorkingHours) StartMinutes() (int, error) {
	return parseClock(w.StartTime)
}

// EndMinutes returns the closing time as minutes from midnight.
func (w *WorkingHours) EndMinutes() (int, error) {
	return parseClock(w.EndTime)
}

// parseClock parses "HH:MM" into minutes from midnight.
func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

type UpsertWorkingHoursRequest struct {
	StartTime string `json:"start_time" binding:"required,clock_time"`
	EndTime   string `json:"end_time" binding:"required,clock_time"`
}
