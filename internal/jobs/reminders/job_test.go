// internal/jobs/reminders/job_test.go
package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "medical-reminders/internal/common/errors"
	"medical-reminders/internal/common/logger"
	"medical-reminders/internal/models"
	"medical-reminders/internal/notify"
	"medical-reminders/internal/store"
)

// mockAppointments implements AppointmentSource.
type mockAppointments struct {
	appointments []models.Appointment
	err          error
	gotStart     time.Time
	gotEnd       time.Time
}

func (m *mockAppointments) ScheduledBetween(ctx context.Context, start, end time.Time) ([]models.Appointment, error) {
	m.gotStart, m.gotEnd = start, end
	if m.err != nil {
		return nil, m.err
	}
	var due []models.Appointment
	for _, a := range m.appointments {
		if a.ReminderEligible(start, end) {
			due = append(due, a)
		}
	}
	return due, nil
}

// mockPatients implements PatientSource.
type mockPatients struct {
	patients map[string]models.Patient
	err      error
}

func (m *mockPatients) ByID(ctx context.Context, id string) (*models.Patient, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// mockSender implements ReminderSender with one outcome per appointment id.
type mockSender struct {
	mu       sync.Mutex
	failFor  map[string]error
	sentAppt []string
}

func (m *mockSender) SendReminder(ctx context.Context, appt models.Appointment, patient models.Patient) notify.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentAppt = append(m.sentAppt, appt.ID)
	if err, ok := m.failFor[appt.ID]; ok {
		return notify.Outcome{AppointmentID: appt.ID, PatientID: patient.ID, Status: notify.StatusFailed, Err: err}
	}
	return notify.Outcome{AppointmentID: appt.ID, PatientID: patient.ID, Status: notify.StatusSent}
}

// mockLocker implements Locker.
type mockLocker struct {
	held     bool
	acquired []string
	released []string
}

func (m *mockLocker) AcquireLease(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.acquired = append(m.acquired, key)
	return !m.held, nil
}

func (m *mockLocker) ReleaseLease(ctx context.Context, key string) error {
	m.released = append(m.released, key)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestJob(t *testing.T, appts *mockAppointments, pats *mockPatients, sender *mockSender, locker Locker) *Job {
	t.Helper()
	job := NewJob(appts, pats, sender, locker, Config{
		Location:    time.UTC,
		Concurrency: 4,
		LockTTL:     time.Minute,
	}, nil, logger.NewTestLogger(t))
	job.now = fixedClock(time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC))
	return job
}

func scheduledOn(id, patientID string, date time.Time) models.Appointment {
	return models.Appointment{ID: id, PatientID: patientID, Date: date, Status: models.AppointmentStatusScheduled}
}

func TestRun_SendsOneReminderPerDueAppointment(t *testing.T) {
	tomorrow := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	appts := &mockAppointments{appointments: []models.Appointment{
		scheduledOn("a1", "p1", tomorrow),
		scheduledOn("a2", "p2", tomorrow.Add(4*time.Hour)),
	}}
	pats := &mockPatients{patients: map[string]models.Patient{
		"p1": {ID: "p1", Name: "One", Email: "one@example.com"},
		"p2": {ID: "p2", Name: "Two", Email: "two@example.com"},
	}}
	sender := &mockSender{}
	locker := &mockLocker{}

	job := newTestJob(t, appts, pats, sender, locker)
	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.ElementsMatch(t, []string{"a1", "a2"}, sender.sentAppt)
	assert.NotEmpty(t, result.RunID)

	// Window is [start of June 2, start of June 3).
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), appts.gotStart)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), appts.gotEnd)

	// Lock acquired and released.
	assert.Equal(t, []string{"reminders:run-lock"}, locker.acquired)
	assert.Equal(t, []string{"reminders:run-lock"}, locker.released)
}

func TestRun_ExcludesOutOfWindowAndWrongStatus(t *testing.T) {
	tomorrow := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	cancelled := scheduledOn("a-cancelled", "p1", tomorrow)
	cancelled.Status = models.AppointmentStatusCancelled

	appts := &mockAppointments{appointments: []models.Appointment{
		scheduledOn("a-today", "p1", time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)),
		scheduledOn("a-day-after", "p1", time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)),
		cancelled,
		scheduledOn("a-due", "p1", tomorrow),
	}}
	pats := &mockPatients{patients: map[string]models.Patient{
		"p1": {ID: "p1", Name: "One", Email: "one@example.com"},
	}}
	sender := &mockSender{}

	job := newTestJob(t, appts, pats, sender, &mockLocker{})
	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []string{"a-due"}, sender.sentAppt)
}

func TestRun_MissingPatientIsSkippedSilently(t *testing.T) {
	tomorrow := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	appts := &mockAppointments{appointments: []models.Appointment{
		scheduledOn("a1", "p1", tomorrow),
		scheduledOn("a2", "p-missing", tomorrow),
	}}
	pats := &mockPatients{patients: map[string]models.Patient{
		"p1": {ID: "p1", Name: "One", Email: "one@example.com"},
	}}
	sender := &mockSender{}

	job := newTestJob(t, appts, pats, sender, &mockLocker{})
	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.Equal(t, []string{"a1"}, sender.sentAppt)
}

func TestRun_FailuresDoNotStopTheBatch(t *testing.T) {
	tomorrow := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	appts := &mockAppointments{appointments: []models.Appointment{
		scheduledOn("a1", "p1", tomorrow),
		scheduledOn("a2", "p2", tomorrow),
		scheduledOn("a3", "p3", tomorrow),
	}}
	pats := &mockPatients{patients: map[string]models.Patient{
		"p1": {ID: "p1", Email: "one@example.com"},
		"p2": {ID: "p2", Email: "two@example.com"},
		"p3": {ID: "p3", Email: "three@example.com"},
	}}
	sendErr := errors.New("smtp down")
	sender := &mockSender{failFor: map[string]error{"a2": sendErr}}

	job := newTestJob(t, appts, pats, sender, &mockLocker{})
	result, err := job.Run(context.Background())

	// Every dispatch was attempted before the run error was raised.
	assert.Len(t, sender.sentAppt, 3)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeReminderRunFailed, commonerrors.CodeOf(err))
	assert.ErrorIs(t, err, sendErr)
}

func TestRun_NothingDueIsSuccess(t *testing.T) {
	appts := &mockAppointments{}
	sender := &mockSender{}

	job := newTestJob(t, appts, &mockPatients{}, sender, &mockLocker{})
	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Total())
	assert.Empty(t, sender.sentAppt)
}

func TestRun_QueryFailureFailsTheRun(t *testing.T) {
	appts := &mockAppointments{err: errors.New("store unavailable")}
	sender := &mockSender{}

	job := newTestJob(t, appts, &mockPatients{}, sender, &mockLocker{})
	_, err := job.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStoreQueryFailed, commonerrors.CodeOf(err))
	assert.Empty(t, sender.sentAppt)
}

func TestRun_SkipsWhenLockHeld(t *testing.T) {
	tomorrow := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	appts := &mockAppointments{appointments: []models.Appointment{
		scheduledOn("a1", "p1", tomorrow),
	}}
	sender := &mockSender{}
	locker := &mockLocker{held: true}

	job := newTestJob(t, appts, &mockPatients{}, sender, locker)
	result, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.Total())
	assert.Empty(t, sender.sentAppt)
	assert.Empty(t, locker.released)
}
