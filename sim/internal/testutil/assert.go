// Package testutil provides shared assertion helpers for sim/ test packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertConserved checks s[i]+i[i]+r[i] == population at every index within relTol.
// Reports only the first violation.
func AssertConserved(t *testing.T, s, inf, r []float64, population, relTol float64) {
	t.Helper()
	for i := range s {
		total := s[i] + inf[i] + r[i]
		if math.Abs(total-population) > relTol*population {
			t.Errorf("index %d: S+I+R = %v, want %v (relTol %v)", i, total, population, relTol)
			return
		}
	}
}

// AssertNonNegative checks every value of every named series is >= 0.
// Reports only the first violation per series.
func AssertNonNegative(t *testing.T, series map[string][]float64) {
	t.Helper()
	for name, values := range series {
		for i, v := range values {
			if v < 0 {
				t.Errorf("%s[%d] = %v, want >= 0", name, i, v)
				break
			}
		}
	}
}
