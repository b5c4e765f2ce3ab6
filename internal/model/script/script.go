package script

import (
	"github.com/samber/lo"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

// DefaultID is the script served when a widget does not ask for one.
const DefaultID = "optm"

// Option is one entry of the "what are you here for" menu.
type Option struct {
	Label    string              `json:"label"`
	FormType submission.FormType `json:"formType"`
	Prompt   string              `json:"prompt"`
}

// Script holds every line the assistant says for one brand.
type Script struct {
	ID      string   `json:"id"`
	Brand   string   `json:"brand"`
	Title   string   `json:"title"`
	Welcome string   `json:"welcome"`
	Menu    string   `json:"menu"`
	Options []Option `json:"options"`
	Change  string   `json:"change"`
	Changed string   `json:"changed"`
	NewChat string   `json:"newChat"`
	Thanks  string   `json:"thanks"`
	Restart string   `json:"restart"`
	Failure string   `json:"failure"`
}

// Labels returns the menu labels in display order.
func (s Script) Labels() []string {
	return lo.Map(s.Options, func(o Option, _ int) string { return o.Label })
}

// FindOption looks an option up by its exact label.
func (s Script) FindOption(label string) (Option, bool) {
	return lo.Find(s.Options, func(o Option) bool { return o.Label == label })
}

// Seed provides the scripts shipped with the widget.
func Seed() []Script {
	return []Script{
		{
			ID:      DefaultID,
			Brand:   "OPTM Media Solutions",
			Title:   "Virtual Assistant",
			Welcome: "Hi, I am OPTM Media Solutions virtual assistant",
			Menu:    "Hi, what are you here for?",
			Options: []Option{
				{Label: "Business Offer", FormType: submission.FormBusiness, Prompt: "Please fill in your details below:"},
				{Label: "Job/Internship Opportunities", FormType: submission.FormJob, Prompt: "Please provide your details and the role you are looking for:"},
				{Label: "Feedback", FormType: submission.FormFeedback, Prompt: "Please provide your feedback:"},
			},
			Change:  "I want to change my option",
			Changed: "Sure, what would you like to do instead?",
			NewChat: "Start a new chat",
			Thanks:  "Thank you! Your submission has been received. Our team will get back to you shortly.",
			Restart: "Would you like to start a new chat?",
			Failure: "Sorry, there was an error submitting your information. Please try again later.",
		},
	}
}
