// Package notifier delivers verification codes and links to users by email.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"
)

// Message is a single outbound email. Body is HTML.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier sends a message to its recipient.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

const (
	otpSubject       = "Your Email Verification OTP"
	magicLinkSubject = "Your sign-in link"
)

var (
	otpTmpl = template.Must(template.New("otp").Parse(
		`<p>Your OTP for email verification is: <strong>{{.Code}}</strong></p>
<p>This OTP will expire in {{.Minutes}} minutes.</p>`))

	magicLinkTmpl = template.Must(template.New("magic").Parse(
		`<p>Click the link below to sign in:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link will expire in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>`))
)

// OTPMessage renders the verification code email.
func OTPMessage(to, code string, ttl time.Duration) (Message, error) {
	body, err := render(otpTmpl, map[string]any{"Code": code, "Minutes": int(ttl.Minutes())})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: otpSubject, Body: body}, nil
}

// MagicLinkMessage renders the sign-in link email.
func MagicLinkMessage(to, link string, ttl time.Duration) (Message, error) {
	body, err := render(magicLinkTmpl, map[string]any{"Link": link, "Minutes": int(ttl.Minutes())})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: magicLinkSubject, Body: body}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
