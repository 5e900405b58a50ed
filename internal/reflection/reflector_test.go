package reflection

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
)

func completedSnapshot() models.StateSnapshot {
	return models.StateSnapshot{
		RunID:     "run-1",
		Ticker:    "AAPL",
		TradeDate: "2025-09-10",
		Reports: map[string]string{
			models.RoleMarket:       "uptrend intact",
			models.RoleSentiment:    "mildly positive",
			models.RoleNews:         "no major events",
			models.RoleFundamentals: "insider buying",
		},
		Debate: []models.DebateRound{
			{Round: 0, Speaker: models.SpeakerBull, Text: "growth is underpriced"},
			{Round: 1, Speaker: models.SpeakerBear, Text: "multiple is stretched"},
		},
		InvestmentPlan: "buy in two tranches",
		TraderPlan:     "FINAL TRANSACTION PROPOSAL: **BUY**",
		FinalDecision:  "proceed with the buy",
	}
}

func TestReflectStoresLessonPerRole(t *testing.T) {
	ctx := context.Background()
	mem, err := memory.New("", memory.NewLocalEmbedding(), nil)
	require.NoError(t, err)

	stub := llm.Func(func(ctx context.Context, roleContext, prompt string) (string, error) {
		require.Contains(t, prompt, "Realized outcome: +4.2% over 7 trading days")
		return "lesson learned", nil
	})

	reflector := New(stub, mem, nil)
	require.NoError(t, reflector.Reflect(ctx, completedSnapshot(), "+4.2% over 7 trading days"))

	for _, collection := range memory.Collections() {
		count, err := mem.Count(collection)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "collection %s", collection)
	}

	records, _, err := mem.Retrieve(ctx, memory.CollectionTrader, "uptrend intact insider buying", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "lesson learned", records[0].Lesson)
	assert.Equal(t, "+4.2% over 7 trading days", records[0].Outcome)
}

func TestReflectRequiresCompletedRun(t *testing.T) {
	mem, err := memory.New("", memory.NewLocalEmbedding(), nil)
	require.NoError(t, err)

	reflector := New(llm.Func(func(context.Context, string, string) (string, error) {
		return "lesson", nil
	}), mem, nil)

	snapshot := completedSnapshot()
	snapshot.FinalDecision = ""

	err = reflector.Reflect(context.Background(), snapshot, "+1%")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrIncompleteState)
}

func TestReflectReviewsEachSideSeparately(t *testing.T) {
	mem, err := memory.New("", memory.NewLocalEmbedding(), nil)
	require.NoError(t, err)

	var reviewed []string
	stub := llm.Func(func(ctx context.Context, roleContext, prompt string) (string, error) {
		start := strings.Index(prompt, "(") + 1
		end := strings.Index(prompt, ")")
		reviewed = append(reviewed, prompt[start:end])
		return "lesson", nil
	})

	reflector := New(stub, mem, nil)
	require.NoError(t, reflector.Reflect(context.Background(), completedSnapshot(), "-2%"))

	assert.Equal(t, []string{
		"bull researcher's arguments",
		"bear researcher's arguments",
		"research manager's investment plan",
		"trader's proposal",
		"risk manager's final decision",
	}, reviewed)
}
