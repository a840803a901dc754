package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/pkg/logger/loggertest"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "RentalHub: Email Verification", Subject(EmailVerification))
	assert.Equal(t, "RentalHub: New Listing Submitted", Subject(NewListingSubmitted))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     Template
		data     map[string]any
		contains []string
	}{
		{
			name:     "verification code",
			tmpl:     EmailVerification,
			data:     map[string]any{"name": "Ali", "code": "042137", "ttl_minutes": 10},
			contains: []string{"Ali", "042137", "10 minutes"},
		},
		{
			name:     "reset code",
			tmpl:     PasswordReset,
			data:     map[string]any{"name": "Ali", "code": "999000", "ttl_minutes": 10},
			contains: []string{"999000"},
		},
		{
			name:     "listing title is escaped",
			tmpl:     ListingApproved,
			data:     map[string]any{"name": "Owner", "listing_title": "<b>Kia</b>", "link": "http://x/listings/1"},
			contains: []string{"&lt;b&gt;Kia&lt;/b&gt;", "http://x/listings/1"},
		},
		{
			name:     "missing keys render empty",
			tmpl:     ListingRejected,
			data:     map[string]any{},
			contains: []string{"was not approved"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := Render(tt.tmpl, tt.data)
			require.NoError(t, err)
			assert.Equal(t, Subject(tt.tmpl), subject)
			for _, want := range tt.contains {
				assert.Contains(t, body, want)
			}
		})
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, err := Render(Template("welcome"), nil)
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(loggertest.New(t))
	assert.NoError(t, s.Send(context.Background(), "a@example.com", NewListingSubmitted, map[string]any{"listing_title": "Kia Rio"}))
	assert.Error(t, s.Send(context.Background(), "a@example.com", Template("nope"), nil))
}
