package requestid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenIsUniqueAndCompact(t *testing.T) {
	a, b := Gen(), Gen()
	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "abc123")
	assert.Equal(t, "abc123", FromContext(ctx))
	assert.Empty(t, FromContext(context.Background()))
}
