package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeValue(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  interface{}
		want interface{}
	}{
		{name: "email_redacted", key: "email", val: "ada@example.com", want: "[REDACTED]"},
		{name: "password_redacted", key: "password", val: "hunter2", want: "[REDACTED]"},
		{name: "refresh_redacted", key: "refresh_token", val: "abc", want: "[REDACTED]"},
		{name: "plain_passthrough", key: "tier", val: "High", want: "High"},
		{name: "empty_key_passthrough", key: "", val: 42, want: 42},
		{name: "jwt_looking_value", key: "detail", val: "aaaaaaaaaaaa.bbbbbbbbbbbb.cccc", want: "[REDACTED]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeValue(tc.key, tc.val))
		})
	}
}

func TestHashValueStableAndShort(t *testing.T) {
	a := sanitizeValue("student_id", "2f1c")
	b := sanitizeValue("student_id", "2f1c")
	assert.Equal(t, a, b)
	s, ok := a.(string)
	assert.True(t, ok)
	assert.Len(t, s, len("hash:")+12)
	assert.Equal(t, "", hashValue(nil))
}

func TestNewTestModeIsSilent(t *testing.T) {
	log, err := New("test")
	assert.NoError(t, err)
	log.Info("ignored", "email", "x@example.com")
	log.With("service", "x").Warn("also ignored")
	log.Sync()
}
