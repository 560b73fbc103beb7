package model

type ConflictType string

const (
	ConflictTypeOverlap              ConflictType = "OVERLAP"
	ConflictTypeWorkingHours         ConflictType = "WORKING_HOURS"
	ConflictTypePatientUnavailable   ConflictType = "PATIENT_UNAVAILABLE"
	ConflictTypeTherapistUnavailable ConflictType = "THERAPIST_UNAVAILABLE"
)

// Conflict is one structured reason a proposed slot cannot be booked.
// Conflicts are produced fresh on every availability check, never stored.
type Conflict struct {
	Type                   ConflictType `json:"type"`
	Message                string       `json:"message"`
	ConflictingAppointment *Appointment `json:"conflicting_appointment,omitempty"`
}

// AvailabilityResult reports bookability as data, not as an error, so
// callers can display every reason at once.
type AvailabilityResult struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

// Messages returns the human-readable message of every conflict, in order.
func (r *AvailabilityResult) Messages() []string {
	msgs := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		msgs = append(msgs, c.Message)
	}
	return msgs
}
