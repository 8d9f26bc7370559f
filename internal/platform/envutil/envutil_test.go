package envutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReaders(t *testing.T) {
	t.Setenv("SP_INT", "42")
	t.Setenv("SP_BAD_INT", "x")
	t.Setenv("SP_FLOAT", "0.25")
	t.Setenv("SP_BOOL", "on")
	t.Setenv("SP_SECS", "90")
	t.Setenv("SP_LIST", " a, ,b ")

	assert.Equal(t, 42, Int("SP_INT", 1))
	assert.Equal(t, 1, Int("SP_BAD_INT", 1))
	assert.Equal(t, 7, Int("SP_MISSING", 7))
	assert.InDelta(t, 0.25, Float("SP_FLOAT", 0), 1e-9)
	assert.True(t, Bool("SP_BOOL", false))
	assert.True(t, Bool("SP_MISSING", true))
	assert.Equal(t, 90*time.Second, Seconds("SP_SECS", time.Second))
	assert.Equal(t, time.Minute, Seconds("SP_MISSING", time.Minute))
	assert.Equal(t, []string{"a", "b"}, List("SP_LIST", nil))
	assert.Equal(t, "dflt", String("SP_MISSING", "dflt"))
}
