package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Template string

const (
	EmailVerification   Template = "email_verification"
	PasswordReset       Template = "password_reset"
	NewListingSubmitted Template = "new_listing_submitted"
	ListingApproved     Template = "listing_approved"
	ListingRejected     Template = "listing_rejected"
)

// Sender delivers one templated email. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to string, tmpl Template, data map[string]any) error
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("mail").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))

// Subject turns a template name into a title-cased subject line.
func Subject(tmpl Template) string {
	p := strings.ReplaceAll(string(tmpl), "_", " ")
	return "RentalHub: " + cases.Title(language.English).String(p)
}

// Render returns the subject and HTML body for tmpl.
func Render(tmpl Template, data map[string]any) (string, string, error) {
	t := templates.Lookup(string(tmpl) + ".html")
	if t == nil {
		return "", "", fmt.Errorf("unknown email template %q", tmpl)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", tmpl, err)
	}
	return Subject(tmpl), buf.String(), nil
}
