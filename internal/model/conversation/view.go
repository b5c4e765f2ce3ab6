package conversation

import "github.com/optm-media/site-assistant/backend/internal/model/submission"

// State is a step of the scripted dialogue.
type State string

const (
	StateGreeting     State = "greeting"
	StateOptionMenu   State = "option_menu"
	StateBusinessForm State = "business_form"
	StateJobForm      State = "job_form"
	StateFeedbackForm State = "feedback_form"
	StateSubmitting   State = "submitting"
	StateConfirmation State = "confirmation"
)

// StateForForm maps a form tag to the state that shows it.
func StateForForm(ft submission.FormType) State {
	switch ft {
	case submission.FormBusiness:
		return StateBusinessForm
	case submission.FormJob:
		return StateJobForm
	case submission.FormFeedback:
		return StateFeedbackForm
	default:
		return ""
	}
}

// IsForm reports whether a form is on screen and editable.
func (s State) IsForm() bool {
	return s == StateBusinessForm || s == StateJobForm || s == StateFeedbackForm
}

// View lists the affordances the widget renders for a state.
type View struct {
	State            State               `json:"state"`
	InputEnabled     bool                `json:"inputEnabled"`
	ShowOptions      bool                `json:"showOptions"`
	Options          []string            `json:"options,omitempty"`
	ActiveForm       submission.FormType `json:"activeForm,omitempty"`
	Fields           []Field             `json:"fields,omitempty"`
	ShowChangeOption bool                `json:"showChangeOption"`
	Submitting       bool                `json:"submitting"`
	ShowNewChat      bool                `json:"showNewChat"`
}

// NewView derives the affordances from the session state. options are the
// menu labels of the session's script.
func NewView(state State, form FormData, options []string) View {
	v := View{State: state}
	switch {
	case state == StateGreeting:
		v.InputEnabled = true
	case state == StateOptionMenu:
		v.InputEnabled = true
		v.ShowOptions = true
		v.Options = append([]string(nil), options...)
	case state.IsForm():
		v.ActiveForm = form.FormType
		v.Fields = FieldsFor(form.FormType)
		v.ShowChangeOption = true
	case state == StateSubmitting:
		v.ActiveForm = form.FormType
		v.Fields = FieldsFor(form.FormType)
		v.Submitting = true
	case state == StateConfirmation:
		v.ShowNewChat = true
	}
	return v
}
