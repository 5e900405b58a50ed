// Package memory implements the situational memory store: per-role
// collections of (situation, outcome, lesson) records, retrievable by
// embedding similarity. Records are immutable once stored, so the store is
// safe for concurrent runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// Memory collections, one per consumer role. A request for one collection
// never returns records stored under another.
const (
	CollectionBull   = "bull"
	CollectionBear   = "bear"
	CollectionTrader = "trader"
	CollectionJudge  = "judge"
	CollectionRisk   = "risk"
)

// Collections returns all role collections.
func Collections() []string {
	return []string{CollectionBull, CollectionBear, CollectionTrader, CollectionJudge, CollectionRisk}
}

// Record is one stored lesson. Similarity is populated on retrieval.
type Record struct {
	ID         string  `json:"id"`
	Situation  string  `json:"situation"`
	Outcome    string  `json:"outcome"`
	Lesson     string  `json:"lesson"`
	Similarity float32 `json:"similarity,omitempty"`
}

// Memory wraps an embedded chromem-go vector database with one collection
// per role.
type Memory struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger *zap.Logger

	mu sync.Mutex // serializes writes so insertion sequence numbers are stable
}

// New opens a situational memory store. An empty path keeps the store
// in-memory; otherwise records persist under path.
func New(path string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*Memory, error) {
	if embed == nil {
		return nil, fmt.Errorf("memory: embedding function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("memory: opening store at %s: %w", path, err)
		}
	}

	return &Memory{db: db, embed: embed, logger: logger}, nil
}

func (m *Memory) collection(name string) (*chromem.Collection, error) {
	if !validCollection(name) {
		return nil, fmt.Errorf("memory: unknown collection %q", name)
	}
	c, err := m.db.GetOrCreateCollection(name, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("memory: collection %s: %w", name, err)
	}
	return c, nil
}

func validCollection(name string) bool {
	for _, c := range Collections() {
		if c == name {
			return true
		}
	}
	return false
}

// Store appends an immutable record to the named collection, computing and
// persisting its embedding.
func (m *Memory) Store(ctx context.Context, collection, situation, outcome, lesson string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.collection(collection)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:      uuid.NewString(),
		Content: situation,
		Metadata: map[string]string{
			"outcome":   outcome,
			"lesson":    lesson,
			"seq":       strconv.Itoa(c.Count()),
			"stored_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := c.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("memory: storing in %s: %w", collection, err)
	}

	m.logger.Debug("memory record stored",
		zap.String("collection", collection),
		zap.String("id", doc.ID))
	return nil
}

// Retrieve returns up to k records nearest to query by embedding similarity,
// nearest first, ties broken by insertion order. An empty collection yields
// an empty result. If the embedding capability is unavailable, Retrieve
// degrades to an empty result and reports degraded=true instead of failing;
// a memory outage must never abort an analysis run.
func (m *Memory) Retrieve(ctx context.Context, collection, query string, k int) (records []Record, degraded bool, err error) {
	c, err := m.collection(collection)
	if err != nil {
		return nil, false, err
	}
	if k <= 0 {
		return nil, false, nil
	}

	count := c.Count()
	if count == 0 {
		return nil, false, nil
	}
	if k > count {
		k = count
	}

	results, err := c.Query(ctx, query, k, nil, nil)
	if err != nil {
		m.logger.Warn("memory retrieval degraded",
			zap.String("collection", collection),
			zap.Error(err))
		return nil, true, nil
	}

	// chromem orders by similarity; make tie order deterministic by
	// insertion sequence.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return seqOf(results[i]) < seqOf(results[j])
	})

	records = make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, Record{
			ID:         r.ID,
			Situation:  r.Content,
			Outcome:    r.Metadata["outcome"],
			Lesson:     r.Metadata["lesson"],
			Similarity: r.Similarity,
		})
	}
	return records, false, nil
}

func seqOf(r chromem.Result) int {
	seq, err := strconv.Atoi(r.Metadata["seq"])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return seq
}

// Count returns the number of records stored under collection.
func (m *Memory) Count(collection string) (int, error) {
	c, err := m.collection(collection)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}
