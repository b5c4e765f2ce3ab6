package submission

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormType tags which of the three widget forms produced a payload.
type FormType string

const (
	FormBusiness FormType = "business"
	FormJob      FormType = "job"
	FormFeedback FormType = "feedback"
)

// FormTypes lists the supported tags in menu order.
var FormTypes = []FormType{FormBusiness, FormJob, FormFeedback}

var (
	ErrMissingFormType = errors.New("formType is required")
	ErrUnknownFormType = errors.New("unknown formType")
)

// ParseFormType accepts the wire value of a form tag.
func ParseFormType(raw string) (FormType, error) {
	ft := FormType(strings.ToLower(strings.TrimSpace(raw)))
	switch ft {
	case FormBusiness, FormJob, FormFeedback:
		return ft, nil
	case "":
		return "", ErrMissingFormType
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormType, raw)
	}
}

// Payload is the body relayed to the company inbox.
type Payload struct {
	FormType      FormType `json:"formType" validate:"required,oneof=business job feedback"`
	Email         string   `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Name          string   `json:"name,omitempty" validate:"max=200"`
	BusinessName  string   `json:"businessName,omitempty" validate:"required_if=FormType business,max=200"`
	BusinessOffer string   `json:"businessOffer,omitempty" validate:"max=5000"`
	Feedback      string   `json:"feedback,omitempty" validate:"required_if=FormType feedback,max=5000"`
	JobRole       string   `json:"jobRole,omitempty" validate:"required_if=FormType job,max=200"`
	JobInterest   string   `json:"jobInterest,omitempty" validate:"max=5000"`

	// Inferred is set when the tag was derived from field presence.
	Inferred bool `json:"-"`
}

var validate = validator.New()

// Validate checks the payload against its struct tags.
func (p Payload) Validate() error {
	return validate.Struct(p)
}

// Scoped drops every field that does not belong to the tagged form.
func (p Payload) Scoped() Payload {
	out := Payload{FormType: p.FormType, Email: p.Email, Inferred: p.Inferred}
	switch p.FormType {
	case FormBusiness:
		out.BusinessName = p.BusinessName
		out.BusinessOffer = p.BusinessOffer
	case FormJob:
		out.Name = p.Name
		out.JobRole = p.JobRole
		out.JobInterest = p.JobInterest
	case FormFeedback:
		out.Feedback = p.Feedback
	}
	return out
}

// wirePayload mirrors every field older widget builds have sent.
type wirePayload struct {
	FormType      string `json:"formType"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	BusinessName  string `json:"businessName"`
	BusinessOffer string `json:"businessOffer"`
	Feedback      string `json:"feedback"`
	JobRole       string `json:"jobRole"`
	Role          string `json:"role"`
	JobInterest   string `json:"jobInterest"`
}

// DecodeOptions tunes Decode.
type DecodeOptions struct {
	// AllowLegacy infers a missing formType from field presence.
	AllowLegacy bool
}

// Decode reads one JSON payload, resolves its form tag and validates it.
func Decode(r io.Reader, opts DecodeOptions) (Payload, error) {
	var wire wirePayload
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}

	p := Payload{
		Email:         strings.TrimSpace(wire.Email),
		Name:          strings.TrimSpace(wire.Name),
		BusinessName:  strings.TrimSpace(wire.BusinessName),
		BusinessOffer: strings.TrimSpace(wire.BusinessOffer),
		Feedback:      strings.TrimSpace(wire.Feedback),
		JobRole:       strings.TrimSpace(wire.JobRole),
		JobInterest:   strings.TrimSpace(wire.JobInterest),
	}
	if p.JobRole == "" {
		p.JobRole = strings.TrimSpace(wire.Role)
	}

	ft, err := ParseFormType(wire.FormType)
	switch {
	case err == nil:
		p.FormType = ft
	case errors.Is(err, ErrMissingFormType) && opts.AllowLegacy:
		inferred, ok := InferFormType(p)
		if !ok {
			return Payload{}, err
		}
		p.FormType = inferred
		p.Inferred = true
	default:
		return Payload{}, err
	}

	p = p.Scoped()
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("invalid %s payload: %w", p.FormType, err)
	}
	return p, nil
}

// InferFormType applies the legacy presence rule. When several
// discriminating fields are present the first match wins, in the order
// businessName, feedback, jobRole.
func InferFormType(p Payload) (FormType, bool) {
	switch {
	case p.BusinessName != "":
		return FormBusiness, true
	case p.Feedback != "":
		return FormFeedback, true
	case p.JobRole != "":
		return FormJob, true
	default:
		return "", false
	}
}
