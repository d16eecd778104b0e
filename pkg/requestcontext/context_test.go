package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, RunID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)

	fixed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	ctx = WithTime(WithRunID(WithRequestID(ctx, "req-1"), "run-1"), fixed)
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "run-1", RunID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
