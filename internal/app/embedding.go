package app

import (
	"context"
	"math"
	"strings"

	"github.com/twmb/murmur3"
)

const embeddingDims = 256

// nameEmbedding embeds a filename locally: character trigrams of the
// lower-cased text are hashed into a fixed number of buckets and the vector
// is normalized, which is what chromem expects for cosine similarity.
func nameEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, embeddingDims)

	runes := []rune(" " + strings.ToLower(text) + " ")
	for i := 0; i+3 <= len(runes); i++ {
		h := murmur3.Sum32([]byte(string(runes[i : i+3])))
		v[h%embeddingDims]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}
