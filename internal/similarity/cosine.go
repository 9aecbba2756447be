// Package similarity compares embeddings.
package similarity

import "math"

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero norm have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scores returns the cosine similarity of query to each vector, in order.
func Scores(query []float32, vectors [][]float32) []float64 {
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		out[i] = Cosine(query, v)
	}
	return out
}
