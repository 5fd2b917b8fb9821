// internal/notify/templates.go
package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"medical-reminders/internal/models"
)

// Subjects are fixed; only the bodies are templated.
const (
	ReminderSubject = "Appointment Reminder - Tomorrow"
	WelcomeSubject  = "Welcome to Our Medical Practice"
)

// longDateLayout renders "Sunday, June 2, 2024" (en-US long form).
const longDateLayout = "Monday, January 2, 2006"

// FormatLongDate renders the appointment date for the message body.
func FormatLongDate(t time.Time) string {
	return t.Format(longDateLayout)
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3b82f6;">Appointment Reminder</h2>

  <p>Dear {{.PatientName}},</p>

  <p>This is a friendly reminder that you have an appointment scheduled for <strong>tomorrow</strong>.</p>

  <div style="background-color: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #1f2937;">Appointment Details</h3>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Doctor:</strong> {{.DoctorName}}</p>
    <p><strong>Reason:</strong> {{.Reason}}</p>
  </div>

  <p><strong>Important reminders:</strong></p>
  <ul>
    <li>Please arrive 15 minutes early for check-in</li>
    <li>Bring a valid photo ID and insurance card</li>
    <li>Bring a list of current medications</li>
    <li>If you need to cancel or reschedule, please call us at least 24 hours in advance</li>
  </ul>

  <p>If you have any questions or need to reschedule, please contact our office.</p>

  <p>Thank you,<br>
  {{.Sender}}</p>

  <hr style="margin: 30px 0; border: none; border-top: 1px solid #e5e7eb;">
  <p style="font-size: 12px; color: #6b7280;">
    This is an automated reminder. Please do not reply to this email.
  </p>
</div>
`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #3b82f6;">Welcome to Our Practice!</h2>

  <p>Dear {{.Name}},</p>

  <p>Welcome to our medical practice! We're excited to have you as a new patient.</p>

  <div style="background-color: #f8fafc; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <h3 style="margin-top: 0; color: #1f2937;">Your Patient Information</h3>
    <p><strong>Name:</strong> {{.Name}}</p>
    <p><strong>Age:</strong> {{.Age}} years</p>
    <p><strong>Phone:</strong> {{.Phone}}</p>
    <p><strong>Email:</strong> {{.Email}}</p>
  </div>

  <p>Our team is committed to providing you with the highest quality healthcare. If you have any questions or need to schedule an appointment, please don't hesitate to contact us.</p>

  <p>Thank you for choosing our practice!</p>

  <p>Best regards,<br>
  {{.Sender}}</p>
</div>
`))

type reminderData struct {
	PatientName string
	Date        string
	Time        string
	DoctorName  string
	Reason      string
	Sender      string
}

type welcomeData struct {
	Name   string
	Age    int
	Phone  string
	Email  string
	Sender string
}

// ReminderEmail renders the reminder body for one appointment/patient pair.
// Pure function; free-text fields are escaped by html/template so notes or
// reasons containing markup cannot inject into the message.
func ReminderEmail(appt models.Appointment, patient models.Patient, sender string) (subject, body string, err error) {
	var buf strings.Builder
	data := reminderData{
		PatientName: patient.Name,
		Date:        FormatLongDate(appt.Date),
		Time:        appt.Time,
		DoctorName:  appt.DoctorName,
		Reason:      appt.Reason,
		Sender:      sender,
	}
	if err := reminderTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render reminder template: %w", err)
	}
	return ReminderSubject, buf.String(), nil
}

// WelcomeEmail renders the welcome body for a newly created patient.
func WelcomeEmail(patient models.Patient, sender string) (subject, body string, err error) {
	var buf strings.Builder
	data := welcomeData{
		Name:   patient.Name,
		Age:    patient.Age,
		Phone:  patient.Phone,
		Email:  patient.Email,
		Sender: sender,
	}
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render welcome template: %w", err)
	}
	return WelcomeSubject, buf.String(), nil
}
