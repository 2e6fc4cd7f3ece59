package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

// Each template renders a subject, a plain-text body, and an HTML body
// from the same data map. Data keys used: Name, VerifyURL, Code,
// ExpiresIn, CompanyName, SupportURL.

type tmplSet struct {
	subject string
	text    string
	html    string
}

var sets = map[string]tmplSet{
	"verify_email": {
		subject: `Verify your email address`,
		text: `Hi {{.Name}},

Confirm your email address by opening the link below:

{{.VerifyURL}}

If you did not create this account, you can ignore this message.
`,
		html: `<p>Hi {{.Name}},</p>
<p>Confirm your email address by clicking the button below.</p>
<p><a href="{{.VerifyURL}}">Verify email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
`,
	},
	"reset_code": {
		subject: `Your password reset code`,
		text: `Hi {{.Name}},

Your password reset code is: {{.Code}}

The code expires in {{.ExpiresIn}}. If you did not request a reset, ignore this message.
`,
		html: `<p>Hi {{.Name}},</p>
<p>Your password reset code is:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>The code expires in {{.ExpiresIn}}. If you did not request a reset, ignore this message.</p>
`,
	},
	"reset_done": {
		subject: `Your password was changed`,
		text: `Hi {{.Name}},

Your password has been changed. All active sessions were signed out.

If this wasn't you, contact support{{if .SupportURL}} at {{.SupportURL}}{{end}} immediately.
`,
		html: `<p>Hi {{.Name}},</p>
<p>Your password has been changed. All active sessions were signed out.</p>
<p>If this wasn't you, contact support{{if .SupportURL}} at <a href="{{.SupportURL}}">{{.SupportURL}}</a>{{end}} immediately.</p>
`,
	},
	"account_closed": {
		subject: `Your account has been closed`,
		text: `Hi {{.Name}},

Your account has been closed as requested. We're sorry to see you go.
`,
		html: `<p>Hi {{.Name}},</p>
<p>Your account has been closed as requested. We're sorry to see you go.</p>
`,
	},
}

// Render produces subject, text, and html bodies for the named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	set, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if subject, err = renderText(name+".subject", set.subject, data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+".text", set.text, data); err != nil {
		return "", "", "", err
	}
	if html, err = renderHTML(name+".html", set.html, data); err != nil {
		return "", "", "", err
	}
	return subject, text, html, nil
}

func renderText(name, src string, data any) (string, error) {
	tpl, err := texttpl.New(name).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

func renderHTML(name, src string, data any) (string, error) {
	tpl, err := htmpl.New(name).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}
