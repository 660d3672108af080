package solver

import (
	"math"

	"github.com/pulsepower/pulsedeck/internal/bufstore"
)

// solveBand runs the single-sweep pentadiagonal elimination described in
// §4.3 over mem's D/L1/U1/L2/U2/B arrays, in place, leaving the solution in
// mem.B. It is only correct when there are no sparse edits — callers with
// branch attachments must use solveDense instead.
func solveBand(mem *bufstore.Memory) error {
	n := len(mem.D)
	d, l1, u1, l2, u2, b := mem.D, mem.L1, mem.U1, mem.L2, mem.U2, mem.B

	floor(d, 0)
	for i := 0; i <= n-2; i++ {
		floor(d, i)
		if l1[i+1] != 0 {
			f := l1[i+1] / d[i]
			d[i+1] -= f * u1[i]
			u1[i+1] -= f * u2[i]
			b[i+1] -= f * b[i]
		}
		if i <= n-3 && l2[i+2] != 0 {
			f := l2[i+2] / d[i]
			l1[i+2] -= f * u1[i]
			d[i+2] -= f * u2[i]
			b[i+2] -= f * b[i]
		}
	}
	floor(d, n-1)
	if d[n-1] == 0 {
		return &SolveError{Kind: Singular, Row: n - 1}
	}

	b[n-1] /= d[n-1]
	b[n-2] = (b[n-2] - u1[n-2]*b[n-1]) / d[n-2]
	for i := n - 3; i >= 0; i-- {
		b[i] = (b[i] - u1[i]*b[i+1] - u2[i]*b[i+2]) / d[i]
	}
	return nil
}

// floor clamps d[i] away from zero by DiagonalFloor, preserving sign (or
// treating a genuine zero as positive), per the "1e-25 -> sign*1e-25"
// flooring policy that guards near-singular pivots at branch starts and
// phantom nodes alike.
func floor(d []float64, i int) {
	if math.Abs(d[i]) < DiagonalFloor {
		if d[i] < 0 {
			d[i] = -DiagonalFloor
		} else {
			d[i] = DiagonalFloor
		}
	}
}
