package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func TestCacheUnreachableServerIsTemporary(t *testing.T) {
	c := New(Options{Addr: "127.0.0.1:1", TTL: time.Minute})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, _, err := c.Get(ctx, "missing")
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.ErrTemporary))
}

// Requires a running server: DOCUSCAN_TEST_REDIS_ADDR=localhost:6379.
func TestCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("DOCUSCAN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("DOCUSCAN_TEST_REDIS_ADDR not set")
	}
	c := New(Options{Addr: addr, TTL: time.Minute})
	defer c.Close()
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	key := uuid.NewString()
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	want := domain.ClassificationResult{
		CaseType:    domain.CaseTypeCriminal,
		Urgency:     domain.UrgencyHigh,
		ClientNames: []string{"Jane Roe"},
	}
	require.NoError(t, c.Set(ctx, key, want))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.CaseType, got.CaseType)
	require.Equal(t, want.ClientNames, got.ClientNames)
}
