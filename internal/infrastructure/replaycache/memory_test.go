package replaycache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/gateway/signature"
)

var _ signature.SeenStore = (*Memory)(nil)
var _ signature.SeenStore = (*Redis)(nil)

func TestMemory_Seen(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	seen, err := store.Seen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen, "first delivery is not a replay")

	seen, err = store.Seen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, seen, "second delivery is a replay")

	seen, err = store.Seen(ctx, "evt_2", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen, "distinct event ids are independent")
}

func TestMemory_SeenExpires(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.Seen(ctx, "evt_1", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	seen, err := store.Seen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen, "expired entries are forgotten")
}
