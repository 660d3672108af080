package circmodel

// Parasitic and floor values baked into the deck compiler's element
// expansion. These are fixed design choices, not tunables adjusted at
// runtime.
const (
	// ShortCircuitG is substituted for 1/R when a user-specified RCG
	// resistance is exactly zero.
	ShortCircuitG = 1e9

	// RCGPhantomR and RCGPhantomL are the parasitic series values on the
	// phantom RL_SERIES node that follows a real RCG node.
	RCGPhantomR = 1e-7
	RCGPhantomL = 1e-11

	// SwitchPhantomL is the parasitic inductance on a switch's RL_SERIES
	// node, regardless of switch kind.
	SwitchPhantomL = 1e-9

	// TRLPhantomSeriesR is the parasitic resistance on a TRL segment's
	// phantom RL_SERIES node.
	TRLPhantomSeriesR = 1e-7
	// TRLPhantomShuntG is the parasitic conductance on a TRL segment's
	// phantom RC_GROUND node.
	TRLPhantomShuntG = 1e-9
)
