package steps

import (
	"math"
	"testing"
)

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, -0.2, 0.9}
	got := cosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-6 {
		t.Fatalf("self similarity = %v, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := cosineSimilarity(a, b); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal similarity = %v, want 0", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{0.1, 0.5, 0.7}
	b := []float32{0.9, 0.2, 0.4}
	if ab, ba := cosineSimilarity(a, b), cosineSimilarity(b, a); math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric: sim(a,b)=%v sim(b,a)=%v", ab, ba)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{1, 2, 3}
	if got := cosineSimilarity(zero, v); got != 0 {
		t.Fatalf("zero-norm similarity = %v, want 0", got)
	}
	if got := cosineSimilarity(nil, v); got != 0 {
		t.Fatalf("empty similarity = %v, want 0", got)
	}
}

func TestMeanVector(t *testing.T) {
	mean, ok := meanVector([][]float32{{1, 0}, {0, 1}})
	if !ok {
		t.Fatal("mean of two vectors should exist")
	}
	if math.Abs(float64(mean[0])-0.5) > 1e-6 || math.Abs(float64(mean[1])-0.5) > 1e-6 {
		t.Fatalf("mean = %v, want [0.5 0.5]", mean)
	}

	if _, ok := meanVector(nil); ok {
		t.Fatal("mean of nothing should not exist")
	}
	// Mismatched dimensions are dropped, not averaged.
	mean, ok = meanVector([][]float32{{2, 4}, {1, 2, 3}})
	if !ok || mean[0] != 2 || mean[1] != 4 {
		t.Fatalf("mean with mismatched dims = %v ok=%v", mean, ok)
	}
}

func TestNormalizeUnit(t *testing.T) {
	v := normalizeUnit([]float32{3, 4})
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Fatalf("norm = %v, want 1", math.Sqrt(norm))
	}

	zero := []float32{0, 0}
	got := normalizeUnit(zero)
	if got[0] != 0 || got[1] != 0 {
		t.Fatalf("zero vector changed: %v", got)
	}
}

func TestParseFloat32ArrayJSON(t *testing.T) {
	vec, ok := parseFloat32ArrayJSON([]byte(`[0.5, -1, 2]`))
	if !ok || len(vec) != 3 || vec[0] != 0.5 {
		t.Fatalf("parse = %v ok=%v", vec, ok)
	}
	if _, ok := parseFloat32ArrayJSON([]byte(`{}`)); ok {
		t.Fatal("object should not parse as vector")
	}
	if _, ok := parseFloat32ArrayJSON(nil); ok {
		t.Fatal("empty input should not parse")
	}
	if _, ok := parseFloat32ArrayJSON([]byte(`[]`)); ok {
		t.Fatal("empty array should not count as a vector")
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("hello", 3); got != "hel" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncateText("hi", 10); got != "hi" {
		t.Fatalf("short input changed: %q", got)
	}
	if got := truncateText("hi", 0); got != "hi" {
		t.Fatalf("non-positive max changed input: %q", got)
	}
}

func TestClamp01(t *testing.T) {
	if got := clamp01(-0.5); got != 0 {
		t.Fatalf("clamp(-0.5) = %v", got)
	}
	if got := clamp01(1.5); got != 1 {
		t.Fatalf("clamp(1.5) = %v", got)
	}
	if got := clamp01(0.25); got != 0.25 {
		t.Fatalf("clamp(0.25) = %v", got)
	}
}
