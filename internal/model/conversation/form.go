package conversation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

var ErrFieldNotInForm = errors.New("field does not belong to the active form")

// Field names one input of a widget form. Values match the JSON keys.
type Field string

const (
	FieldEmail         Field = "email"
	FieldBusinessName  Field = "businessName"
	FieldBusinessOffer Field = "businessOffer"
	FieldFeedback      Field = "feedback"
	FieldJobRole       Field = "jobRole"
	FieldJobInterest   Field = "jobInterest"
)

var formFields = map[submission.FormType][]Field{
	submission.FormBusiness: {FieldEmail, FieldBusinessName, FieldBusinessOffer},
	submission.FormJob:      {FieldEmail, FieldJobRole, FieldJobInterest},
	submission.FormFeedback: {FieldEmail, FieldFeedback},
}

// FieldsFor returns the inputs rendered for a form, in display order.
func FieldsFor(ft submission.FormType) []Field {
	return append([]Field(nil), formFields[ft]...)
}

// FormData is the single mutable record behind whichever form is shown.
type FormData struct {
	Email         string              `json:"email"`
	BusinessName  string              `json:"businessName"`
	BusinessOffer string              `json:"businessOffer"`
	Feedback      string              `json:"feedback"`
	JobRole       string              `json:"jobRole"`
	JobInterest   string              `json:"jobInterest"`
	FormType      submission.FormType `json:"formType"`
}

// Reset empties every field, including the form tag.
func (f *FormData) Reset() {
	*f = FormData{}
}

// Set writes one field of the active form.
func (f *FormData) Set(field Field, value string) error {
	if !lo.Contains(formFields[f.FormType], field) {
		return fmt.Errorf("%w: %s", ErrFieldNotInForm, field)
	}
	switch field {
	case FieldEmail:
		f.Email = value
	case FieldBusinessName:
		f.BusinessName = value
	case FieldBusinessOffer:
		f.BusinessOffer = value
	case FieldFeedback:
		f.Feedback = value
	case FieldJobRole:
		f.JobRole = value
	case FieldJobInterest:
		f.JobInterest = value
	}
	return nil
}

// Get reads one field regardless of the active form.
func (f FormData) Get(field Field) string {
	switch field {
	case FieldEmail:
		return f.Email
	case FieldBusinessName:
		return f.BusinessName
	case FieldBusinessOffer:
		return f.BusinessOffer
	case FieldFeedback:
		return f.Feedback
	case FieldJobRole:
		return f.JobRole
	case FieldJobInterest:
		return f.JobInterest
	default:
		return ""
	}
}

// Missing lists the required inputs of the active form that are still blank.
func (f FormData) Missing() []Field {
	return lo.Filter(formFields[f.FormType], func(field Field, _ int) bool {
		return strings.TrimSpace(f.Get(field)) == ""
	})
}

// Payload builds the relay body. Only the active form's fields are carried.
func (f FormData) Payload() submission.Payload {
	p := submission.Payload{
		FormType:      f.FormType,
		Email:         strings.TrimSpace(f.Email),
		BusinessName:  strings.TrimSpace(f.BusinessName),
		BusinessOffer: strings.TrimSpace(f.BusinessOffer),
		Feedback:      strings.TrimSpace(f.Feedback),
		JobRole:       strings.TrimSpace(f.JobRole),
		JobInterest:   strings.TrimSpace(f.JobInterest),
	}
	return p.Scoped()
}
