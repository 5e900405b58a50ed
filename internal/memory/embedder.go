package memory

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// NewOpenAIEmbedding returns an embedding function backed by the OpenAI
// embeddings API. Used when online tools are enabled.
func NewOpenAIEmbedding(apiKey string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI3Small)
}

const localEmbeddingDim = 256

// NewLocalEmbedding returns a deterministic bag-of-words hashing embedder.
// It needs no network access, which keeps memory usable offline and makes
// retrieval tests reproducible. Not a substitute for a learned embedding
// model; similar wording, not similar meaning, is what it captures.
func NewLocalEmbedding() chromem.EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, localEmbeddingDim)
		for _, tok := range strings.Fields(strings.ToLower(text)) {
			tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
			if tok == "" {
				continue
			}
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%localEmbeddingDim]++
		}

		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			// A vector of zeros has no direction; give empty text a fixed one.
			vec[0] = 1
			return vec, nil
		}
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
		return vec, nil
	}
}
