package solver

import (
	"math"

	"github.com/pulsepower/pulsedeck/circmodel"
	"github.com/pulsepower/pulsedeck/internal/bufstore"
)

// updateSwitches applies the time-varying resistance rules to every node
// carrying a Switch descriptor, ahead of stencil assembly. For an INSTANT
// switch R steps between ROpen and RClose at TSwitch. For an EXPONENTIAL
// switch R decays from RClose+ROpen toward RClose with rate K starting at
// TSwitch — the analytic schedule the deck format leaves undefined; this
// solver adopts R(t) = RClose + ROpen*exp(-K*max(0, t-TSwitch)).
func updateSwitches(nodes []circmodel.Node, t float64) {
	for i := range nodes {
		n := &nodes[i]
		sw := n.Switch
		if sw == nil {
			continue
		}
		switch sw.Kind {
		case circmodel.SwitchInstant:
			if t < sw.TSwitch {
				n.R = sw.ROpen
			} else {
				n.R = sw.RClose
			}
		case circmodel.SwitchExponential:
			dt := t - sw.TSwitch
			if dt < 0 {
				dt = 0
			}
			n.R = sw.RClose + sw.ROpen*math.Exp(-sw.K*dt)
		}
	}
}

// rows returns (rV, rI): the voltage-drop row and the KCL row for node i.
// For a RC_GROUND node the KCL equation lands on row 2i and the voltage
// equation on row 2i+1; for a RL_SERIES node it's the reverse. This
// resolves the contradiction between the two row-swap descriptions in the
// governing spec text in favor of the one paired with the worked stencil
// formulas (see DESIGN.md).
func rows(kind circmodel.NodeKind, i int) (rV, rI int) {
	if kind == circmodel.RCGround {
		return 2*i + 1, 2 * i
	}
	return 2 * i, 2*i + 1
}

// addBand adds val to the matrix entry (row, col) of mem's banded storage.
// col-row must be within [-2, 2]; this always holds for the base stencil
// by construction (see rows above) but never for branch-coupling edits,
// which go through mem.AddEdit instead.
func addBand(mem *bufstore.Memory, row, col int, val float64) {
	switch col - row {
	case -2:
		mem.L2[row] += val
	case -1:
		mem.L1[row] += val
	case 0:
		mem.D[row] += val
	case 1:
		mem.U1[row] += val
	case 2:
		mem.U2[row] += val
	default:
		mem.AddEdit(row, col, val)
	}
}

// zeroRow clears every banded entry and the right-hand side for row,
// ahead of a branch-attachment row overwrite.
func zeroRow(mem *bufstore.Memory, row int) {
	mem.L2[row] = 0
	mem.L1[row] = 0
	mem.D[row] = 0
	mem.U1[row] = 0
	mem.U2[row] = 0
	mem.B[row] = 0
}

// assembleBase writes the base (pre-branch-coupling) stencil for every
// node into mem, following §4.3: AV = theta*G + C/dt, AI = theta*R + L/dt,
// with every branch's last node forcing I = 0 (invariant (4)), except a
// node used as an END attachment's anchor, which stays coupled to the
// next node as a series continuation instead.
func assembleBase(mem *bufstore.Memory, nodes []circmodel.Node, terminal []bool, theta, dt float64) {
	n := len(nodes)
	for i, node := range nodes {
		av := theta*node.G + node.C/dt
		ai := theta*node.R + node.L/dt

		rV, rI := rows(node.Kind, i)

		// KCL row.
		addBand(mem, rI, 2*i, av)
		addBand(mem, rI, 2*i+1, theta)
		iPrevOld := 0.0
		if i > 0 {
			addBand(mem, rI, 2*i-1, -theta)
			iPrevOld = mem.IOld[i-1]
		}
		mem.B[rI] += (1-theta)*(iPrevOld-mem.IOld[i]) + (node.C/dt-(1-theta)*node.G)*mem.VOld[i]

		// Voltage-drop row.
		if i == n-1 || terminal[i] {
			addBand(mem, rV, 2*i+1, 1)
			continue
		}
		addBand(mem, rV, 2*i, theta)
		addBand(mem, rV, 2*i+1, -ai)
		addBand(mem, rV, 2*i+2, -theta)
		mem.B[rV] += (1-theta)*(mem.VOld[i+1]-mem.VOld[i]) - (node.L/dt-(1-theta)*node.R)*mem.IOld[i]
	}
}
