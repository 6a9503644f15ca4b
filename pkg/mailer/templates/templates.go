package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"time"
)

// Data carries the fields rendered into transactional emails. It is
// marshalled through EmailJob.Data, so keys stay stable strings.
type Data struct {
	Name      string
	AppName   string
	ActionURL string
	ExpiresAt time.Time
}

// ToMap converts Data into the loosely typed EmailJob payload.
func ToMap(d Data) map[string]any {
	return map[string]any{
		"Name":      d.Name,
		"AppName":   d.AppName,
		"ActionURL": d.ActionURL,
		"ExpiresAt": d.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

const verifyEmailHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Verify your email address</h2>
  <p>Hi {{.Name}},</p>
  <p>Welcome to {{.AppName}}. Confirm your email address to activate your account:</p>
  <p><a href="{{.ActionURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Verify email</a></p>
  <p>This link expires at {{.ExpiresAt}}. If you did not create an account, you can ignore this message.</p>
</body>
</html>`

const resetPasswordHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Reset your password</h2>
  <p>Hi {{.Name}},</p>
  <p>We received a request to reset the password for your {{.AppName}} account:</p>
  <p><a href="{{.ActionURL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none;">Choose a new password</a></p>
  <p>This link expires at {{.ExpiresAt}}. If you did not request a reset, your password is unchanged.</p>
</body>
</html>`

var templates = map[string]*htmpl.Template{
	"verify_email":   htmpl.Must(htmpl.New("verify_email").Parse(verifyEmailHTML)),
	"reset_password": htmpl.Must(htmpl.New("reset_password").Parse(resetPasswordHTML)),
}

var subjects = map[string]string{
	"verify_email":   "Verify your email address",
	"reset_password": "Reset your password",
}

// Render produces the subject, plain-text fallback, and HTML body for a
// named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", "", err
	}
	subject = subjects[name]
	text = fmt.Sprintf("%v: %v (expires %v)", subject, data["ActionURL"], data["ExpiresAt"])
	return subject, text, buf.String(), nil
}
