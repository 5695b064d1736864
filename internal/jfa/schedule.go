package jfa

import (
	"math/bits"

	"jumpflood/internal/core"
)

// DerivePasses returns ceil(log2(max(w, h))), the number of halving steps
// needed for a seed to reach every pixel of a field of size s.
func DerivePasses(s core.Size) int {
	m := s.Max()
	if m <= 1 {
		return 0
	}
	return bits.Len(uint(m - 1))
}

// Schedule returns the step size of every pass for a field of size s. A
// positive override replaces the pass count but keeps the derived starting
// step: a shorter schedule stops before step 1, a longer one repeats it.
func Schedule(s core.Size, override int) []float32 {
	derived := DerivePasses(s)
	n := derived
	if override > 0 {
		n = override
	}
	steps := make([]float32, n)
	for i := range steps {
		e := derived - 1 - i
		if e < 0 {
			e = 0
		}
		steps[i] = float32(int(1) << e)
	}
	return steps
}
