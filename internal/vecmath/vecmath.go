// Package vecmath holds the vector similarity helpers shared by the
// stores that rank sections in process.
package vecmath

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when the vectors
// differ in length or either has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scored pairs an index into a candidate list with its similarity.
type Scored struct {
	Index int
	Score float64
}

// TopK ranks candidates by cosine similarity to query and returns at most
// k of them, best first. Candidates without an embedding are skipped.
// Ties keep candidate order.
func TopK(query []float32, candidates [][]float32, k int) []Scored {
	if k <= 0 {
		return nil
	}

	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		if len(c) == 0 {
			continue
		}
		scored = append(scored, Scored{Index: i, Score: Cosine(query, c)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
