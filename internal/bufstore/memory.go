// Package bufstore owns the per-timestep coefficient storage and the
// double-buffered state vectors used by solver. It is deliberately free of
// any circuit semantics: solver decides what goes into these arrays, this
// package only owns them and the swap/clear primitives.
package bufstore

// SparseEdit is one entry in the branch-coupling / row-overwrite side
// channel. Entries are applied after the banded stencil is assembled, and
// the presence of any entry is what forces solver to fall back to the
// general solve instead of the pentadiagonal fast path.
type SparseEdit struct {
	Row, Col int
	Value    float64
}

// Memory holds the pentadiagonal coefficient arrays (main diagonal D,
// adjacent off-diagonals L1/U1, two-off L2/U2), the right-hand side B, the
// sparse edit log, and the double-buffered node state. All slices are
// sized once at construction and reused across steps: Clear never
// reallocates, it only zeroes.
type Memory struct {
	N int // node count; matrix size is 2N

	D, L1, U1, L2, U2, B []float64
	Edits                []SparseEdit

	VOld, IOld []float64
	VNew, INew []float64
}

// New allocates a Memory sized for n nodes. State vectors start at zero;
// callers seed VOld from Node.InitialV before the first Step.
func New(n int) *Memory {
	sz := 2 * n
	return &Memory{
		N:    n,
		D:    make([]float64, sz),
		L1:   make([]float64, sz),
		U1:   make([]float64, sz),
		L2:   make([]float64, sz),
		U2:   make([]float64, sz),
		B:    make([]float64, sz),
		VOld: make([]float64, n),
		IOld: make([]float64, n),
		VNew: make([]float64, n),
		INew: make([]float64, n),
	}
}

// Clear zeroes all diagonals and the right-hand side, and empties the
// sparse edit list without releasing its backing array. Called at the
// start of every step because coefficients depend on the current element
// values and on dt.
func (m *Memory) Clear() {
	zero(m.D)
	zero(m.L1)
	zero(m.U1)
	zero(m.L2)
	zero(m.U2)
	zero(m.B)
	m.Edits = m.Edits[:0]
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

// AddEdit appends a sparse coupling or row-overwrite entry.
func (m *Memory) AddEdit(row, col int, value float64) {
	m.Edits = append(m.Edits, SparseEdit{Row: row, Col: col, Value: value})
}

// Swap exchanges the (VOld, IOld) and (VNew, INew) buffers by moving slice
// headers, never by copying element data. Two consecutive calls to Swap
// restore pointer identity.
func (m *Memory) Swap() {
	m.VOld, m.VNew = m.VNew, m.VOld
	m.IOld, m.INew = m.INew, m.IOld
}

// NonFinite reports whether any entry of VNew or INew is NaN or Inf, used
// by solver to enforce the "must produce finite outputs" requirement
// without weakening the elimination itself.
func (m *Memory) NonFinite() bool {
	for _, v := range m.VNew {
		if isNonFinite(v) {
			return true
		}
	}
	for _, v := range m.INew {
		if isNonFinite(v) {
			return true
		}
	}
	return false
}

func isNonFinite(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308
