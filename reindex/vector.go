package reindex

import "math"

// NormalizeVector scales a vector to unit length, returning a new
// slice. A zero vector cannot be normalized and maps to a zero vector.
// Normalization keeps rewritten vectors comparable under cosine
// distance regardless of the replacement embedder's output scale.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	magnitude := float32(math.Sqrt(sum))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
