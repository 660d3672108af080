package circmodel

// ProbeKind selects which state array a Probe reads from.
type ProbeKind int

const (
	ProbeVoltage ProbeKind = iota
	ProbeCurrent
)

// Probe binds a deck label to a state read. Labels are deduplicated by the
// compiler: on collision the second occurrence becomes "label_1", the next
// "label_2", and so on.
type Probe struct {
	Kind  ProbeKind
	Node  int
	Label string
}
