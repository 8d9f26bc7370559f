package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, ParseHeaders(""))
	assert.Nil(t, ParseHeaders("broken, =x"))
	assert.Equal(t, map[string]string{"api-key": "abc", "tenant": "t1"}, ParseHeaders(" api-key=abc ,tenant=t1,junk"))
}

func TestClampRatio(t *testing.T) {
	assert.InDelta(t, 0.1, clampRatio(0), 1e-9)
	assert.InDelta(t, 1, clampRatio(4), 1e-9)
	assert.InDelta(t, 0.5, clampRatio(0.5), 1e-9)
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()
	assert.NotNil(t, ctx)
}
