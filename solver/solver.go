// Package solver runs the per-timestep matrix assembly and elimination for
// a compiled circuit: it updates time-varying switches, assembles the
// theta-weighted pentadiagonal stencil, applies
// branch-coupling edits, solves (banded fast path or dense fallback), and
// swaps state buffers. Solver and the Circuit it wraps are not safe for
// concurrent use; a run owns exactly one of each.
package solver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulsepower/pulsedeck/circmodel"
	"github.com/pulsepower/pulsedeck/internal/bufstore"
)

// Solver steps a compiled Circuit forward in time.
type Solver struct {
	circuit *circmodel.Circuit
	mem     *bufstore.Memory
	dense   *denseFallback
	theta   float64
	log     *slog.Logger

	branched bool
	nodeOfKCLBoundary []bool // true when node i is the first or last node of its branch
	terminal          []bool // true when node i must force I = 0 in the base stencil

	Time float64
}

// New builds a Solver for c. VOld is seeded from each node's initial
// condition; IOld starts at zero.
func New(c *circmodel.Circuit, opts ...Options) *Solver {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	n := c.N()
	mem := bufstore.New(n)
	for i, node := range c.Nodes {
		if node.HasInitialV {
			mem.VOld[i] = node.InitialV
		}
	}

	s := &Solver{
		circuit:  c,
		mem:      mem,
		theta:    o.theta(),
		log:      o.logger(),
		branched: len(c.Attachments) > 0,
	}
	if s.branched {
		s.dense = newDenseFallback(n)
	}
	s.nodeOfKCLBoundary = make([]bool, n)
	for _, br := range c.Branches {
		if br.Last < br.First {
			continue
		}
		s.nodeOfKCLBoundary[br.First] = true
		s.nodeOfKCLBoundary[br.Last] = true
	}

	endAnchor := make(map[int]bool, len(c.Attachments))
	for _, a := range c.Attachments {
		if a.Kind == circmodel.AttachEnd {
			endAnchor[a.ParentNode] = true
		}
	}
	s.terminal = make([]bool, n)
	for _, br := range c.Branches {
		if br.Last < br.First || endAnchor[br.Last] {
			continue
		}
		s.terminal[br.Last] = true
	}
	if n > 0 {
		s.terminal[n-1] = true
	}
	return s
}

// Step advances the circuit by one timestep: update switches, assemble,
// apply branch couplings, solve, write V_new/I_new, and swap buffers.
func (s *Solver) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	updateSwitches(s.circuit.Nodes, s.Time)

	s.mem.Clear()
	assembleBase(s.mem, s.circuit.Nodes, s.terminal, s.theta, s.circuit.Dt)

	var err error
	if s.branched {
		s.applyAttachments()
		err = s.dense.solveDense(s.mem)
	} else {
		err = solveBand(s.mem)
	}
	if err != nil {
		if se, ok := err.(*SolveError); ok {
			se.Branch, se.NodeIdx = s.locate(se.Row)
			s.log.Warn("solve failed", "kind", se.Kind, "branch", se.Branch, "node", se.NodeIdx, "time", s.Time)
		}
		return err
	}

	for i := 0; i < s.circuit.N(); i++ {
		s.mem.VNew[i] = s.mem.B[2*i]
		s.mem.INew[i] = s.mem.B[2*i+1]
	}
	if s.mem.NonFinite() {
		return &SolveError{Kind: NonFinite}
	}

	s.mem.Swap()
	s.Time += s.circuit.Dt
	s.log.Debug("step complete", "time", s.Time)
	return nil
}

// locate maps a matrix row back to a (branch, local node index) pair for
// error reporting.
func (s *Solver) locate(row int) (branch, localIdx int) {
	node := row / 2
	for _, br := range s.circuit.Branches {
		if node >= br.First && node <= br.Last {
			return br.ID, node - br.First
		}
	}
	return 0, node
}

// kclRow returns the KCL row for global node index i.
func (s *Solver) kclRow(i int) int {
	_, rI := rows(s.circuit.Nodes[i].Kind, i)
	return rI
}

// couplingK is the branch-coupling scale factor: 0.5 at a branch's first
// or last node, 1 elsewhere. This module keeps the unscaled-boundary
// convention consistently (never mixed with a uniformly-doubled interior
// row); see DESIGN.md.
func (s *Solver) couplingK(node int) float64 {
	if s.nodeOfKCLBoundary[node] {
		return 0.5
	}
	return 1
}

func (s *Solver) applyAttachments() {
	for _, a := range s.circuit.Attachments {
		child, ok := s.circuit.BranchByID(a.ChildBranch)
		if !ok {
			continue
		}
		gc := child.First
		rc := s.kclRow(gc)

		switch a.Kind {
		case circmodel.AttachEnd:
			gp := a.ParentNode
			rp := s.kclRow(gp)
			s.mem.AddEdit(rp, 2*gc+1, s.couplingK(gp))

			zeroRow(s.mem, rc)
			s.mem.AddEdit(rc, 2*gc, 1)
			s.mem.AddEdit(rc, 2*gp, -1)

		case circmodel.AttachTop:
			gl, gr := a.ParentLeft, a.ParentRight
			rl, rr := s.kclRow(gl), s.kclRow(gr)
			s.mem.AddEdit(rl, 2*gc+1, s.couplingK(gl))
			s.mem.AddEdit(rr, 2*gc+1, -s.couplingK(gr))

			zeroRow(s.mem, rc)
			s.mem.AddEdit(rc, 2*gc, 1)
			s.mem.AddEdit(rc, 2*gl, -1)
			s.mem.AddEdit(rc, 2*gr, 1)
		}
	}
}

// Probe reads the post-step value for label from the new state buffers.
func (s *Solver) Probe(label string) (float64, error) {
	p, err := s.findProbe(label)
	if err != nil {
		return 0, err
	}
	if p.Kind == circmodel.ProbeVoltage {
		return s.mem.VOld[p.Node], nil // VOld/IOld hold the just-swapped-in new values after Step
	}
	return s.mem.IOld[p.Node], nil
}

// InitialProbe reads label from the pre-step buffers: before the first
// Step this is the t=0 record from Node.InitialV, exactly the record
// external callers must use instead of a zero-duration Step.
func (s *Solver) InitialProbe(label string) (float64, error) {
	p, err := s.findProbe(label)
	if err != nil {
		return 0, err
	}
	if p.Kind == circmodel.ProbeVoltage {
		return s.mem.VOld[p.Node], nil
	}
	return s.mem.IOld[p.Node], nil
}

func (s *Solver) findProbe(label string) (circmodel.Probe, error) {
	for _, p := range s.circuit.Probes {
		if p.Label == label {
			return p, nil
		}
	}
	return circmodel.Probe{}, fmt.Errorf("solver: no probe labeled %q", label)
}
