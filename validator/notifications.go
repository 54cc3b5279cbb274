package validator

import (
	"bytes"
	"fmt"
	"html/template"
)

// Notifications composes the Synapse messages sent to users. Templates are keyed by outcome
// label and are HTML fragments that may refer to {{.Username}}, {{.Challenge}}, {{.Outcome}}
// and {{.Cause}}.
type Notifications struct {
	subject   string
	signature string
	challenge string
	templates map[string]*template.Template
}

type notification struct {
	Username  string
	Challenge string
	Outcome   string
	Cause     string
	Signature string
}

func NewNotifications(subject, signature, challenge string, templates map[string]string) (*Notifications, error) {
	n := Notifications{
		subject:   subject,
		signature: signature,
		challenge: challenge,
		templates: map[string]*template.Template{},
	}

	for k, v := range templates {
		body := "Dear {{.Username}},<br/><br/>" + v + "<br/><br/>Sincerely,<br/>{{.Signature}}"

		t, err := template.New(k).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("invalid '%v' notification template (%w)", k, err)
		}

		n.templates[k] = t
	}

	return &n, nil
}

// Compose returns the subject and HTML body of the message for the outcome.
func (n *Notifications) Compose(username string, outcome Outcome, cause error) (string, string, error) {
	label := outcome.Label()

	t, ok := n.templates[label]
	if !ok {
		return "", "", fmt.Errorf("no notification template for '%v'", label)
	}

	data := notification{
		Username:  username,
		Challenge: n.challenge,
		Outcome:   label,
		Signature: n.signature,
	}

	if cause != nil {
		data.Cause = cause.Error()
	}

	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%v - %v", n.subject, label), b.String(), nil
}
