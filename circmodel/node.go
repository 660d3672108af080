// Package circmodel holds the data model produced by the deck compiler and
// consumed by the solver: nodes, blocks, branches, attachments and probes.
// Nothing in this package does numeric work; it is the shared vocabulary
// between compile time and step time.
package circmodel

// NodeKind selects which of the two equations at a node is primary. A
// RC_GROUND node's primary equation is a KCL balance (shunt G, C to
// ground); a RL_SERIES node's primary equation is the voltage drop across
// a series R, L to the next node. Blocks alternate these to form the
// discretized pi-section chain.
type NodeKind int

const (
	RCGround NodeKind = iota
	RLSeries
)

func (k NodeKind) String() string {
	if k == RCGround {
		return "RC_GROUND"
	}
	return "RL_SERIES"
}

// SwitchKind distinguishes the two time-scheduled resistor models a
// RL_SERIES node may carry.
type SwitchKind int

const (
	SwitchNone SwitchKind = iota
	SwitchInstant
	SwitchExponential
)

// Switch is the time-varying resistor descriptor for a RL_SERIES node
// flagged as a switch. For SwitchInstant, ROpen/RClose are the two
// resistances either side of TSwitch. For SwitchExponential, ROpen and
// RClose play the role of R1 and R2 in R(t) = RClose + ROpen*exp(-K*max(0,
// t-TSwitch)), and K is the decay rate.
type Switch struct {
	Kind    SwitchKind
	ROpen   float64
	RClose  float64
	K       float64
	TSwitch float64
}

// Node is one physical unknown pair (V_i, I_i) plus the element attributes
// that feed the per-step stencil in solver. IsPhantom nodes exist solely to
// preserve the RC_GROUND/RL_SERIES alternation; they carry near-zero values
// with the parasitic floors defined in const.go.
type Node struct {
	Kind        NodeKind
	R, L, G, C  float64
	IsPhantom   bool
	HasInitialV bool
	InitialV    float64
	Switch      *Switch
}

// IsSwitch reports whether the node's resistance is time-varying.
func (n *Node) IsSwitch() bool { return n.Switch != nil }
