// Package trace supplies the recording, tabulation and plotting layer that
// sits outside the solver core: nothing here participates in the matrix
// assembly, and a caller can drive solver.Solver without ever touching this
// package. It exists because a transient simulator without a way to get
// samples out is not useful on its own — a gap the core intentionally
// leaves for callers to fill.
package trace

import (
	"context"
	"fmt"

	"github.com/pulsepower/pulsedeck/solver"
)

// Sample is one recorded instant: the step time plus one value per tracked
// label, in the order Labels was given to NewRecorder.
type Sample struct {
	Time   float64
	Values []float64
}

// Recorder drives a Solver forward and records the requested probes at
// every step, including the t=0 record taken from InitialProbe.
type Recorder struct {
	s       *solver.Solver
	labels  []string
	samples []Sample
}

// NewRecorder builds a Recorder over labels, which must name probes already
// registered on the circuit s was built from.
func NewRecorder(s *solver.Solver, labels []string) *Recorder {
	return &Recorder{s: s, labels: append([]string(nil), labels...)}
}

// Labels returns the tracked probe labels, in recording order.
func (r *Recorder) Labels() []string { return r.labels }

// Samples returns every sample recorded so far, oldest first.
func (r *Recorder) Samples() []Sample { return r.samples }

// Run records the t=0 sample, then steps s until tEnd (inclusive of the
// step that reaches or passes it), recording after every step. It stops
// early and returns the solver's error if a Step fails.
func (r *Recorder) Run(ctx context.Context, tEnd float64) error {
	if err := r.recordInitial(); err != nil {
		return err
	}
	for r.s.Time < tEnd {
		if err := r.s.Step(ctx); err != nil {
			return fmt.Errorf("trace: step at t=%g: %w", r.s.Time, err)
		}
		if err := r.record(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) recordInitial() error {
	vals := make([]float64, len(r.labels))
	for i, l := range r.labels {
		v, err := r.s.InitialProbe(l)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	r.samples = append(r.samples, Sample{Time: 0, Values: vals})
	return nil
}

func (r *Recorder) record() error {
	vals := make([]float64, len(r.labels))
	for i, l := range r.labels {
		v, err := r.s.Probe(l)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	r.samples = append(r.samples, Sample{Time: r.s.Time, Values: vals})
	return nil
}
