// Package vector provides the TF-IDF term space and sparse-vector similarity helpers.
package vector

import "math"

// SparseVector holds the non-zero components of a vector. Indices are strictly increasing.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IsZero reports whether v has no non-zero components.
func (v SparseVector) IsZero() bool {
	return len(v.Indices) == 0
}

// Len returns the number of non-zero components.
func (v SparseVector) Len() int {
	return len(v.Indices)
}

// InnerProduct returns the inner product of two sparse vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b SparseVector) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(v SparseVector) float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
func Normalize(v SparseVector) {
	n := L2Norm(v)
	if n == 0 {
		return
	}
	for i := range v.Values {
		v.Values[i] /= n
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, 0 when either is zero.
func CosineSimilarity(a, b SparseVector) float64 {
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := InnerProduct(a, b) / (na * nb)
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}
