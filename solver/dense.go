package solver

import (
	"github.com/pulsepower/pulsedeck/internal/bufstore"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/mat"
)

// denseFallback holds the scratch matrix and vectors used once a deck has
// branch attachments and the sparse edit list breaks the pentadiagonal
// band. The matrix and right-hand side are sized once at construction and
// zeroed (never reallocated) on every step; the solution vector is
// allocated afresh by each solveDense call.
type denseFallback struct {
	a   *mat.Dense
	rhs *mat.VecDense
	lu  mat.LU
}

func newDenseFallback(n int) *denseFallback {
	sz := 2 * n
	return &denseFallback{
		a:   mat.NewDense(sz, sz, nil),
		rhs: mat.NewVecDense(sz, nil),
	}
}

// solveDense builds a dense 2N x 2N matrix from mem's banded arrays and
// sparse edit log, factors it with partial pivoting, and leaves the
// solution in mem.B. A handful of off-band branch couplings and
// constraint-row overwrites on top of an otherwise pentadiagonal base
// stencil does not justify a Markowitz-ordered sparse factorization; a
// dense partial-pivot solve is the right-sized tool at the N a pulsed-power
// deck's side branches produce.
func (df *denseFallback) solveDense(mem *bufstore.Memory) error {
	n := len(mem.D)
	df.a.Zero()
	for row := 0; row < n; row++ {
		floor(mem.D, row)
		set(df.a, row, row-2, mem.L2[row])
		set(df.a, row, row-1, mem.L1[row])
		set(df.a, row, row, mem.D[row])
		set(df.a, row, row+1, mem.U1[row])
		set(df.a, row, row+2, mem.U2[row])
		df.rhs.SetVec(row, mem.B[row])
	}
	// Sort edits into row-major order before applying: with several branch
	// attachments landing on the same row (a shared parent node), a stable
	// application order keeps floating-point summation reproducible run to
	// run instead of depending on Attachment slice order from the compiler.
	slices.SortFunc(mem.Edits, func(a, b bufstore.SparseEdit) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	for _, e := range mem.Edits {
		df.a.Set(e.Row, e.Col, df.a.At(e.Row, e.Col)+e.Value)
	}

	df.lu.Factorize(df.a)
	if ok := df.lu.Cond() < 1/DiagonalFloor; !ok {
		return &SolveError{Kind: Singular}
	}

	var x mat.VecDense
	if err := df.lu.SolveVecTo(&x, false, df.rhs); err != nil {
		return &SolveError{Kind: Singular}
	}
	for i := 0; i < n; i++ {
		mem.B[i] = x.AtVec(i)
	}
	return nil
}

func set(a *mat.Dense, row, col int, v float64) {
	n, _ := a.Dims()
	if col < 0 || col >= n || v == 0 {
		return
	}
	a.Set(row, col, a.At(row, col)+v)
}
