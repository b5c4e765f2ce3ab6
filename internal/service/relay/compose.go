package relay

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/optm-media/site-assistant/backend/internal/model/submission"
)

const (
	SubjectBusiness = "New Business Offer Submission"
	SubjectFeedback = "New Feedback Submission"
	SubjectJob      = "New Job/Internship Request"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[submission.FormType]emailTemplate{
	submission.FormBusiness: {
		subject: SubjectBusiness,
		body: template.Must(template.New("business").Parse(`
<h2>New Business Offer</h2>
<p><strong>From:</strong> {{.Email}}</p>
<p><strong>Business Name:</strong> {{.BusinessName}}</p>
<p><strong>Business Offer:</strong></p>
<p>{{.BusinessOffer}}</p>
`)),
	},
	submission.FormFeedback: {
		subject: SubjectFeedback,
		body: template.Must(template.New("feedback").Parse(`
<h2>New Feedback</h2>
<p><strong>From:</strong> {{.Email}}</p>
<p><strong>Feedback:</strong></p>
<p>{{.Feedback}}</p>
`)),
	},
	submission.FormJob: {
		subject: SubjectJob,
		body: template.Must(template.New("job").Parse(`
<h2>New Job/Internship Request</h2>
{{- if .Name}}
<p><strong>Name:</strong> {{.Name}}</p>
{{- end}}
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Role:</strong> {{.JobRole}}</p>
{{- if .JobInterest}}
<p><strong>Job Interest:</strong> {{.JobInterest}}</p>
{{- end}}
`)),
	},
}

// Compose renders the subject and HTML body for p. Exactly one template is
// chosen, by p.FormType.
func Compose(p submission.Payload) (subject, html string, err error) {
	tmpl, ok := templates[p.FormType]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", submission.ErrUnknownFormType, p.FormType)
	}
	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, p); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", p.FormType, err)
	}
	return tmpl.subject, buf.String(), nil
}
