// internal/events/schema.go
package events

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "medical-reminders/internal/common/errors"
)

// patientCreatedSchema constrains the payload carried on the patient-created
// stream. Unknown fields pass through; only shape and required fields are
// enforced.
const patientCreatedSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id":           {"type": "string", "minLength": 1},
    "name":         {"type": "string", "minLength": 1},
    "email":        {"type": "string"},
    "phone":        {"type": "string"},
    "age":          {"type": "integer", "minimum": 0},
    "gender":       {"type": "string"},
    "address":      {"type": "string"},
    "medicalNotes": {"type": "string"}
  }
}`

var patientCreatedLoader = gojsonschema.NewStringLoader(patientCreatedSchema)

// ValidatePatientCreated checks a raw event payload against the schema.
func ValidatePatientCreated(payload []byte) error {
	result, err := gojsonschema.Validate(patientCreatedLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return commonerrors.NewEventPayloadInvalidError(err.Error())
	}
	if !result.Valid() {
		var details strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				details.WriteString("; ")
			}
			details.WriteString(desc.String())
		}
		return commonerrors.NewEventPayloadInvalidError(details.String())
	}
	return nil
}
