// internal/store/repositories_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements DocumentStore over in-memory records.
type fakeStore struct {
	records    map[string]map[string]Record // collection -> id -> record
	gotFilters []Filter
	gotOrderBy string
}

func (f *fakeStore) Query(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Record, error) {
	f.gotFilters = filters
	f.gotOrderBy = orderBy
	var out []Record
	for _, rec := range f.records[collection] {
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, collection, id string) (Record, error) {
	rec, ok := f.records[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func TestScheduledBetween_FilterShape(t *testing.T) {
	due := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	fs := &fakeStore{records: map[string]map[string]Record{
		"appointments": {
			"a1": {
				"id":        "a1",
				"patientId": "p1",
				"date":      due.Format(time.RFC3339),
				"time":      "9:00 AM",
				"status":    "scheduled",
			},
		},
	}}

	repo := NewAppointments(fs, "")
	start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	appts, err := repo.ScheduledBetween(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "a1", appts[0].ID)
	assert.Equal(t, "p1", appts[0].PatientID)
	assert.Equal(t, due, appts[0].Date)

	require.Len(t, fs.gotFilters, 3)
	assert.Equal(t, Filter{Field: "date", Op: OpGreaterOrEqual, Value: start}, fs.gotFilters[0])
	assert.Equal(t, Filter{Field: "date", Op: OpLess, Value: end}, fs.gotFilters[1])
	assert.Equal(t, Filter{Field: "status", Op: OpEqual, Value: "scheduled"}, fs.gotFilters[2])
	assert.Equal(t, "date", fs.gotOrderBy)
}

func TestPatientsByID(t *testing.T) {
	fs := &fakeStore{records: map[string]map[string]Record{
		"patients": {
			"p1": {"id": "p1", "name": "Jane Roe", "email": "jane@example.com", "age": 42},
		},
	}}

	repo := NewPatients(fs, "")

	patient, err := repo.ByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", patient.Name)
	assert.Equal(t, 42, patient.Age)

	_, err = repo.ByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
