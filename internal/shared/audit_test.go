package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOccurredAtDefaultsToNow(t *testing.T) {
	before := time.Now()
	got := AuditLog{}.OccurredAt()
	require.False(t, got.Before(before))
	require.False(t, got.After(time.Now()))
}

func TestOccurredAtKeepsExplicitTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, at, AuditLog{At: at}.OccurredAt())
}
