package dataflows

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureToolkitCoversAllRoles(t *testing.T) {
	tk := NewFixtureToolkit()
	ctx := context.Background()
	date := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	snapshots := map[string]func() (*Snapshot, error){
		"market":       func() (*Snapshot, error) { return tk.MarketSnapshot(ctx, "AAPL", date) },
		"sentiment":    func() (*Snapshot, error) { return tk.SentimentSnapshot(ctx, "AAPL", date) },
		"news":         func() (*Snapshot, error) { return tk.NewsSnapshot(ctx, "AAPL", date) },
		"fundamentals": func() (*Snapshot, error) { return tk.FundamentalsSnapshot(ctx, "AAPL", date) },
	}

	for role, fetch := range snapshots {
		snap, err := fetch()
		require.NoError(t, err, role)
		assert.Equal(t, role, snap.Role)
		assert.Equal(t, ProvenanceFallback, snap.Provenance)
		assert.Contains(t, snap.Text, "AAPL")
		assert.Contains(t, snap.Text, "2025-09-10")
	}
}

func TestProvenanceFromCacheHits(t *testing.T) {
	assert.Equal(t, ProvenanceLive, provenanceFrom(false))
	assert.Equal(t, ProvenanceCache, provenanceFrom(true))
	assert.Equal(t, ProvenanceLive, provenanceFrom(true, false), "one live fetch makes the snapshot live")
	assert.Equal(t, ProvenanceCache, provenanceFrom(true, true))
	assert.Equal(t, ProvenanceCache, provenanceFrom(), "no fetches means nothing left the cache")
}

func TestFixtureToolkitIsDeterministic(t *testing.T) {
	tk := NewFixtureToolkit()
	ctx := context.Background()
	date := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	first, err := tk.MarketSnapshot(ctx, "NVDA", date)
	require.NoError(t, err)
	second, err := tk.MarketSnapshot(ctx, "NVDA", date)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
}
