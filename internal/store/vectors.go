package store

import "math"

// cosineDistance returns 1 - cosine similarity of two vectors.
// 0 means identical direction, 2 means opposite. Mismatched or zero-length
// vectors get the maximum distance rather than an error: a degenerate vector
// should sink in the ranking, not abort the query.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 2
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
