// internal/store/repositories.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medical-reminders/internal/models"
)

// Default collection names, overridable through config.
const (
	CollectionAppointments = "appointments"
	CollectionPatients     = "patients"
)

// Appointments reads appointment records from the document store.
type Appointments struct {
	store      DocumentStore
	collection string
}

func NewAppointments(store DocumentStore, collection string) *Appointments {
	if collection == "" {
		collection = CollectionAppointments
	}
	return &Appointments{store: store, collection: collection}
}

// ScheduledBetween returns appointments with status "scheduled" and date in
// the half-open interval [start, end). Result ordering is by date but callers
// must not depend on it.
func (r *Appointments) ScheduledBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	records, err := r.store.Query(ctx, r.collection, []Filter{
		{Field: "date", Op: OpGreaterOrEqual, Value: start},
		{Field: "date", Op: OpLess, Value: end},
		{Field: "status", Op: OpEqual, Value: models.AppointmentStatusScheduled},
	}, "date")
	if err != nil {
		return nil, err
	}

	appointments := make([]models.Appointment, 0, len(records))
	for _, rec := range records {
		var appt models.Appointment
		if err := decodeRecord(rec, &appt); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}

	return appointments, nil
}

// Patients reads patient records from the document store.
type Patients struct {
	store      DocumentStore
	collection string
}

func NewPatients(store DocumentStore, collection string) *Patients {
	if collection == "" {
		collection = CollectionPatients
	}
	return &Patients{store: store, collection: collection}
}

// ByID fetches one patient. Returns ErrNotFound when the referenced record
// does not exist.
func (r *Patients) ByID(ctx context.Context, id string) (*models.Patient, error) {
	rec, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}

	var patient models.Patient
	if err := decodeRecord(rec, &patient); err != nil {
		return nil, fmt.Errorf("decode patient %s: %w", id, err)
	}

	return &patient, nil
}

// decodeRecord round-trips a raw record through JSON into a typed model, so
// the store adapter stays schema-free.
func decodeRecord(rec Record, target interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
