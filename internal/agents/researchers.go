package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"tradecouncil/internal/llm"
	"tradecouncil/internal/memory"
	"tradecouncil/internal/models"
)

// Researcher argues one side of the bull/bear investment debate, grounding
// each argument in the analyst reports, the transcript so far and lessons
// retrieved from its own memory collection.
type Researcher struct {
	speaker    string
	collection string
	llm        llm.Client
	mem        *memory.Memory
	retrievalK int
	logger     *zap.Logger
}

// NewBullResearcher creates the bull-side debater.
func NewBullResearcher(client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *Researcher {
	return newResearcher(models.SpeakerBull, memory.CollectionBull, client, mem, retrievalK, logger)
}

// NewBearResearcher creates the bear-side debater.
func NewBearResearcher(client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *Researcher {
	return newResearcher(models.SpeakerBear, memory.CollectionBear, client, mem, retrievalK, logger)
}

func newResearcher(speaker, collection string, client llm.Client, mem *memory.Memory, retrievalK int, logger *zap.Logger) *Researcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{
		speaker:    speaker,
		collection: collection,
		llm:        client,
		mem:        mem,
		retrievalK: retrievalK,
		logger:     logger,
	}
}

// Speaker returns which side this researcher argues.
func (r *Researcher) Speaker() string { return r.speaker }

// Argue produces the next utterance for this side. round is the utterance's
// index in the transcript. degraded reports that memory retrieval was
// unavailable and the argument ran without lessons.
func (r *Researcher) Argue(ctx context.Context, state *models.AnalysisState, round int) (models.DebateRound, bool, error) {
	reports, err := state.AnalystReports()
	if err != nil {
		return models.DebateRound{}, false, fmt.Errorf("%s researcher: %w", r.speaker, err)
	}
	situation := SituationSummary(reports)

	lessons, degraded, err := r.mem.Retrieve(ctx, r.collection, situation, r.retrievalK)
	if err != nil {
		return models.DebateRound{}, false, fmt.Errorf("%s researcher: %w", r.speaker, err)
	}

	opponent := models.SpeakerBear
	if r.speaker == models.SpeakerBear {
		opponent = models.SpeakerBull
	}

	prompt := fmt.Sprintf(
		"Company: %s\nTrade date: %s\n\nAnalyst reports:\n%s\n\n"+
			"Debate so far:\n%s\n\n"+
			"Lessons from similar past situations:\n%s\n\n"+
			"Deliver your next argument, engaging the %s's latest points directly.",
		state.Ticker, state.TradeDate, situation,
		renderTranscript(state.DebateTranscript()),
		renderLessons(lessons), opponent)

	roleContext := bullResearcherContext
	if r.speaker == models.SpeakerBear {
		roleContext = bearResearcherContext
	}

	text, err := r.llm.Generate(ctx, roleContext, prompt)
	if err != nil {
		return models.DebateRound{}, degraded, fmt.Errorf("%s researcher: %w", r.speaker, err)
	}

	refs := make([]string, 0, len(lessons))
	for _, l := range lessons {
		refs = append(refs, l.ID)
	}

	return models.DebateRound{
		Round:      round,
		Speaker:    r.speaker,
		Text:       text,
		MemoryRefs: refs,
	}, degraded, nil
}
