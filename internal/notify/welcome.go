package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Welcome holds the values rendered into an agent welcome message.
type Welcome struct {
	FullName string
	Email    string
	Password string
	LoginURL string
}

// WelcomeSubject is the subject line of every welcome message.
const WelcomeSubject = "Your agent account is ready"

var welcomeBody = template.Must(template.New("welcome").Option("missingkey=error").Parse(`Hello {{.FullName}},

Your agent account is ready.

  Email:    {{.Email}}
  Password: {{.Password}}
{{if .LoginURL}}
Sign in at {{.LoginURL}} and change your password after your first login.
{{else}}
Please change your password after your first login.
{{end}}`))

// RenderWelcome returns the subject and body of a welcome message.
func RenderWelcome(w Welcome) (string, string, error) {
	if w.Email == "" {
		return "", "", fmt.Errorf("render welcome: empty recipient")
	}
	var buf bytes.Buffer
	if err := welcomeBody.Execute(&buf, w); err != nil {
		return "", "", fmt.Errorf("render welcome: %w", err)
	}
	return WelcomeSubject, buf.String(), nil
}
