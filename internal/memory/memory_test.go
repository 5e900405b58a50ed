package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := New("", NewLocalEmbedding(), nil)
	require.NoError(t, err)
	return m
}

func TestStoreAndRetrieve(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.Store(ctx, CollectionBull, "tech rally on strong earnings", "+5%", "momentum confirmed the thesis"))
	require.NoError(t, m.Store(ctx, CollectionBull, "rate hike fears dominate", "-3%", "macro overrode fundamentals"))
	require.NoError(t, m.Store(ctx, CollectionBull, "tech selloff on weak guidance", "-7%", "guidance beats momentum"))

	records, degraded, err := m.Retrieve(ctx, CollectionBull, "tech rally on strong earnings momentum", 2)
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, records, 2)

	// Nearest first.
	assert.GreaterOrEqual(t, records[0].Similarity, records[1].Similarity)
	assert.Equal(t, "momentum confirmed the thesis", records[0].Lesson)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "+5%", records[0].Outcome)
}

func TestRetrieveClampsToStoredCount(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.Store(ctx, CollectionTrader, "only one situation", "flat", "nothing to learn"))

	records, degraded, err := m.Retrieve(ctx, CollectionTrader, "anything", 5)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Len(t, records, 1)
}

func TestRetrieveEmptyCollection(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	records, degraded, err := m.Retrieve(ctx, CollectionJudge, "anything", 3)
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Empty(t, records)
}

func TestRetrieveZeroK(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)
	require.NoError(t, m.Store(ctx, CollectionRisk, "s", "o", "l"))

	records, _, err := m.Retrieve(ctx, CollectionRisk, "s", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.Store(ctx, CollectionBull, "bull only situation", "up", "bull lesson"))

	records, _, err := m.Retrieve(ctx, CollectionBear, "bull only situation", 3)
	require.NoError(t, err)
	assert.Empty(t, records, "bear collection must not see bull records")

	count, err := m.Count(CollectionBull)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnknownCollectionRejected(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	err := m.Store(ctx, "scratch", "s", "o", "l")
	require.Error(t, err)

	_, _, err = m.Retrieve(ctx, "scratch", "q", 1)
	require.Error(t, err)
}

func TestRetrieveDegradesWhenEmbedderUnavailable(t *testing.T) {
	ctx := context.Background()

	healthy := NewLocalEmbedding()
	embedderDown := false
	embed := func(ctx context.Context, text string) ([]float32, error) {
		if embedderDown {
			return nil, errors.New("embedding service unavailable")
		}
		return healthy(ctx, text)
	}

	m, err := New("", embed, nil)
	require.NoError(t, err)
	require.NoError(t, m.Store(ctx, CollectionBull, "stored while healthy", "+1%", "lesson"))

	embedderDown = true
	records, degraded, err := m.Retrieve(ctx, CollectionBull, "any query", 2)
	require.NoError(t, err, "an embedder outage must never fail the caller")
	assert.True(t, degraded)
	assert.Empty(t, records)
}

func TestEqualSimilarityTieBreaksByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	// Identical situations embed identically, forcing a similarity tie.
	require.NoError(t, m.Store(ctx, CollectionBear, "identical situation text", "first", "lesson one"))
	require.NoError(t, m.Store(ctx, CollectionBear, "identical situation text", "second", "lesson two"))

	records, _, err := m.Retrieve(ctx, CollectionBear, "identical situation text", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Outcome)
	assert.Equal(t, "second", records[1].Outcome)
}
