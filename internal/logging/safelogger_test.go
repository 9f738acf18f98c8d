package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	t.Run("regular address", func(t *testing.T) {
		assert.Equal(t, "j***@example.com", MaskEmail("john@example.com"))
	})

	t.Run("single char local part", func(t *testing.T) {
		assert.Equal(t, "a***@b.com", MaskEmail("a@b.com"))
	})

	t.Run("not an email", func(t *testing.T) {
		assert.Equal(t, "s***", MaskEmail("secret"))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", MaskEmail(""))
	})

	t.Run("leading at sign", func(t *testing.T) {
		assert.Equal(t, "@***", MaskEmail("@example.com"))
	})
}

func TestEventLog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf)

	logger.Event("otp_generated").
		WithMasked("email", "john@example.com").
		With("backend", "shared").
		Log()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "otp_generated", rec["msg"])
	assert.Equal(t, "j***@example.com", rec["email"])
	assert.Equal(t, "shared", rec["backend"])
	assert.NotContains(t, buf.String(), "john@example.com")
}

func TestEventLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSON(&buf)

	logger.Event("otp_email_send_failed").
		WithMasked("email", "john@example.com").
		With("otp", "123456").
		LogError()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "123456", rec["otp"])
}
