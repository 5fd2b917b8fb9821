// internal/models/appointment.go
package models

import "time"

// Appointment statuses as stored in the document store.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusNoShow    = "no-show"
)

// Appointment mirrors a record in the appointments collection. PatientName and
// DoctorName are denormalized display fields; Time is the display time-of-day
// string and plays no part in window comparisons, which use Date alone.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName"`
	DoctorID    string    `json:"doctorId"`
	DoctorName  string    `json:"doctorName"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
}

// ReminderEligible reports whether the appointment qualifies for a reminder
// within the half-open window [start, end).
func (a Appointment) ReminderEligible(start, end time.Time) bool {
	if a.Status != AppointmentStatusScheduled {
		return false
	}
	return !a.Date.Before(start) && a.Date.Before(end)
}
