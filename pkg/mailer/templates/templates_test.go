package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKnownTemplates(t *testing.T) {
	data := map[string]any{
		"Name":       "Alice",
		"VerifyURL":  "http://localhost/api/verify-email?token=abc",
		"Code":       "123456",
		"ExpiresIn":  "1h0m0s",
		"SupportURL": "http://example.com/support",
	}

	for _, name := range []string{"verify_email", "reset_code", "reset_done", "account_closed"} {
		subject, text, html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.NotEmpty(t, subject, name)
		assert.NotEmpty(t, text, name)
		assert.NotEmpty(t, html, name)
	}
}

func TestRenderResetCodeIncludesCode(t *testing.T) {
	_, text, html, err := Render("reset_code", map[string]any{
		"Name": "Bob", "Code": "654321", "ExpiresIn": "1h0m0s",
	})
	require.NoError(t, err)
	assert.Contains(t, text, "654321")
	assert.Contains(t, html, "654321")
}

func TestRenderEscapesHTML(t *testing.T) {
	_, _, html, err := Render("account_closed", map[string]any{
		"Name": "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", nil)
	assert.Error(t, err)
}
