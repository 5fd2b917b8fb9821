// internal/notify/templates_test.go
package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medical-reminders/internal/models"
)

func TestFormatLongDate(t *testing.T) {
	d := time.Date(2024, 6, 2, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "Sunday, June 2, 2024", FormatLongDate(d))
}

func TestReminderEmail(t *testing.T) {
	appt := models.Appointment{
		ID:         "appt-1",
		PatientID:  "pat-1",
		DoctorName: "Dr. Sarah Chen",
		Date:       time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Time:       "10:30 AM",
		Reason:     "Annual physical",
		Status:     models.AppointmentStatusScheduled,
	}
	patient := models.Patient{
		ID:    "pat-1",
		Name:  "John Doe",
		Email: "john@example.com",
	}

	subject, body, err := ReminderEmail(appt, patient, "Medical Billing System")
	require.NoError(t, err)

	assert.Equal(t, "Appointment Reminder - Tomorrow", subject)
	assert.Contains(t, body, "Dear John Doe,")
	assert.Contains(t, body, "Sunday, June 2, 2024")
	assert.Contains(t, body, "10:30 AM")
	assert.Contains(t, body, "Dr. Sarah Chen")
	assert.Contains(t, body, "Annual physical")
	assert.Contains(t, body, "Medical Billing System")
	assert.Contains(t, body, "arrive 15 minutes early")
}

func TestReminderEmail_EscapesMarkup(t *testing.T) {
	appt := models.Appointment{
		ID:     "appt-1",
		Date:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		Reason: `<script>alert("x")</script>`,
	}
	patient := models.Patient{ID: "pat-1", Name: "John Doe"}

	_, body, err := ReminderEmail(appt, patient, "Front Desk")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestWelcomeEmail(t *testing.T) {
	patient := models.Patient{
		ID:    "pat-2",
		Name:  "Jane Roe",
		Email: "jane@example.com",
		Phone: "555-0100",
		Age:   42,
	}

	subject, body, err := WelcomeEmail(patient, "Medical Billing System")
	require.NoError(t, err)

	assert.Equal(t, "Welcome to Our Medical Practice", subject)
	assert.Contains(t, body, "Dear Jane Roe,")
	assert.Contains(t, body, "42 years")
	assert.Contains(t, body, "555-0100")
	assert.Contains(t, body, "jane@example.com")
}
