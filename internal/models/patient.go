// internal/models/patient.go
package models

// Patient mirrors a record in the patients collection. Email must be present
// for any notification to be attempted.
type Patient struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	Address      string `json:"address"`
	MedicalNotes string `json:"medicalNotes"`
}

// HasEmail reports whether a notification can be addressed to this patient.
func (p Patient) HasEmail() bool {
	return p.Email != ""
}
