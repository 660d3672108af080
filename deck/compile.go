// Package deck compiles the pulsed-power input deck text format into a
// circmodel.Circuit: it expands each statement into physical/phantom node
// pairs, resolves branch attachments, records initial conditions and
// registers probes. See CompileString for the entry point.
package deck

import (
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/pulsepower/pulsedeck/circmodel"
)

// Options configures the compiler. The zero value is a valid default: a
// no-op logger.
type Options struct {
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return noopLogger
}

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Compile reads deck text from r and produces a Circuit, or the first
// CompileError/TopologyError encountered.
func Compile(r io.Reader) (*circmodel.Circuit, error) {
	return CompileWithOptions(r, Options{})
}

// CompileString is Compile over an in-memory deck.
func CompileString(src string) (*circmodel.Circuit, error) {
	c, err := CompileWithOptions(strings.NewReader(src), Options{})
	if c != nil {
		c.Source = src
	}
	return c, err
}

// CompileWithOptions is Compile with explicit Options.
func CompileWithOptions(r io.Reader, opts Options) (*circmodel.Circuit, error) {
	cp := &compiler{
		log:         opts.logger(),
		labelCounts: make(map[string]int),
		curBranch:   -1,
	}
	return cp.run(r)
}

// compiler holds the mutable state accumulated while walking deck
// statements top to bottom. It is single-use: callers get a fresh one per
// Compile call.
type compiler struct {
	log *slog.Logger

	nodes       []circmodel.Node
	blocks      []circmodel.Block
	branches    []circmodel.Branch
	attachments []circmodel.Attachment
	probes      []circmodel.Probe
	labelCounts map[string]int
	diagnostics []string

	dt, tEnd         float64
	globalResolution float64
	trlResolution    float64
	trlResolutionSet bool

	// pending holds indices into attachments awaiting a ChildBranch
	// assignment, in FIFO call order.
	pending []int
	// curBranch is the index into branches currently receiving new
	// blocks, or -1 before the first BRANCH statement.
	curBranch int
}

func (cp *compiler) run(r io.Reader) (*circmodel.Circuit, error) {
	lx := newLexer(r)
	for {
		ln, ok := lx.next()
		if !ok {
			break
		}
		if err := cp.statement(ln); err != nil {
			return nil, err
		}
	}
	return cp.finalize()
}

func (cp *compiler) statement(ln line) error {
	cmd := strings.ToUpper(ln.fields[0])
	switch cmd {
	case "TIME-STEP":
		v, err := cp.num(ln, 1)
		if err != nil {
			return err
		}
		cp.dt = v
	case "END-TIME":
		v, err := cp.num(ln, 1)
		if err != nil {
			return err
		}
		cp.tEnd = v
	case "RESOLUTION-TIME":
		v, err := cp.num(ln, 1)
		if err != nil {
			return err
		}
		cp.globalResolution = v
	case "TRLINE-RESOLUTION":
		v, err := cp.num(ln, 1)
		if err != nil {
			return err
		}
		cp.trlResolution = v
		cp.trlResolutionSet = true
	case "RCG":
		return cp.emitRCG(ln)
	case "RLS":
		return cp.emitRLS(ln)
	case "SWITCH":
		return cp.emitSwitch(ln)
	case "TRL":
		return cp.emitTRL(ln)
	case "INITIAL":
		return cp.applyInitial(ln)
	case "TXT":
		return cp.registerProbe(ln)
	case "BRANCH":
		return cp.openBranch(ln)
	case "TOPBRANCH":
		return cp.enqueueTop(ln)
	case "ENDBRANCH":
		return cp.enqueueEnd(ln)
	default:
		cp.log.Debug("ignoring unknown deck command", "line", ln.no, "command", ln.fields[0])
		cp.diagnostics = append(cp.diagnostics, "line "+strconv.Itoa(ln.no)+": ignored unknown command "+ln.fields[0])
	}
	return nil
}

// num parses the field at index i as a float, wrapping malformed tokens in
// a CompileError.
func (cp *compiler) num(ln line, i int) (float64, error) {
	if i >= len(ln.fields) {
		return 0, &CompileError{Line: ln.no, Token: ln.fields[0], Kind: BadNumber}
	}
	tok := ln.fields[i]
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &CompileError{Line: ln.no, Token: tok, Kind: BadNumber, Err: err}
	}
	return v, nil
}

// optNum is num but returns def when the field is absent, instead of an
// error — used for the optional trailing parameters RCG/RLS accept.
func (cp *compiler) optNum(ln line, i int, def float64) (float64, error) {
	if i >= len(ln.fields) {
		return def, nil
	}
	return cp.num(ln, i)
}

func (cp *compiler) requireBranch(ln line) error {
	if cp.curBranch < 0 {
		return &TopologyError{Line: ln.no, Token: ln.fields[0], Kind: AnchorMissing}
	}
	return nil
}

func (cp *compiler) appendNode(n circmodel.Node) int {
	cp.nodes = append(cp.nodes, n)
	return len(cp.nodes) - 1
}

// appendBlock records a block and extends the current branch's node range.
func (cp *compiler) appendBlock(kind circmodel.BlockKind, first, last int) {
	cp.blocks = append(cp.blocks, circmodel.Block{Kind: kind, First: first, Last: last})
	cp.branches[cp.curBranch].Last = last
}

func (cp *compiler) emitRCG(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	r, err := cp.num(ln, 1)
	if err != nil {
		return err
	}
	c, err := cp.optNum(ln, 2, 0)
	if err != nil {
		return err
	}
	g := circmodel.ShortCircuitG
	if r != 0 {
		g = 1 / r
	}
	first := cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, G: g, C: c})
	last := cp.appendNode(circmodel.Node{
		Kind: circmodel.RLSeries, IsPhantom: true,
		R: circmodel.RCGPhantomR, L: circmodel.RCGPhantomL,
	})
	cp.appendBlock(circmodel.BlockRCG, first, last)
	return nil
}

func (cp *compiler) emitRLS(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	r, err := cp.num(ln, 1)
	if err != nil {
		return err
	}
	l, err := cp.optNum(ln, 2, 0)
	if err != nil {
		return err
	}
	first := cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, IsPhantom: true})
	last := cp.appendNode(circmodel.Node{Kind: circmodel.RLSeries, R: r, L: l})
	cp.appendBlock(circmodel.BlockRLS, first, last)
	return nil
}

func (cp *compiler) emitSwitch(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	if len(ln.fields) < 2 {
		return &CompileError{Line: ln.no, Token: "SWITCH", Kind: BadNumber}
	}
	kind := strings.ToUpper(ln.fields[1])
	switch kind {
	case "INSTANT":
		rOpen, err := cp.num(ln, 2)
		if err != nil {
			return err
		}
		rClose, err := cp.num(ln, 3)
		if err != nil {
			return err
		}
		tsw, err := cp.num(ln, 4)
		if err != nil {
			return err
		}
		first := cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, IsPhantom: true})
		last := cp.appendNode(circmodel.Node{
			Kind: circmodel.RLSeries, R: rOpen, L: circmodel.SwitchPhantomL,
			Switch: &circmodel.Switch{Kind: circmodel.SwitchInstant, ROpen: rOpen, RClose: rClose, TSwitch: tsw},
		})
		cp.appendBlock(circmodel.BlockSwitchInstant, first, last)
	case "EXPONENTIAL":
		r1, err := cp.num(ln, 2)
		if err != nil {
			return err
		}
		r2, err := cp.num(ln, 3)
		if err != nil {
			return err
		}
		k, err := cp.num(ln, 4)
		if err != nil {
			return err
		}
		tsw, err := cp.num(ln, 5)
		if err != nil {
			return err
		}
		first := cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, IsPhantom: true})
		last := cp.appendNode(circmodel.Node{
			Kind: circmodel.RLSeries, R: r1 + r2, L: circmodel.SwitchPhantomL,
			Switch: &circmodel.Switch{Kind: circmodel.SwitchExponential, ROpen: r1, RClose: r2, K: k, TSwitch: tsw},
		})
		cp.appendBlock(circmodel.BlockSwitchExponential, first, last)
	default:
		return &CompileError{Line: ln.no, Token: ln.fields[1], Kind: BadNumber}
	}
	return nil
}

func (cp *compiler) emitTRL(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	if len(ln.fields) < 2 || strings.ToUpper(ln.fields[1]) != "LINEAR" {
		return &CompileError{Line: ln.no, Token: "TRL", Kind: BadNumber}
	}
	delay, err := cp.num(ln, 2)
	if err != nil {
		return err
	}
	z, err := cp.num(ln, 3)
	if err != nil {
		return err
	}
	var res float64
	if len(ln.fields) > 4 {
		res, err = cp.num(ln, 4)
		if err != nil {
			return err
		}
	} else if cp.trlResolutionSet {
		res = cp.trlResolution
	} else {
		res = cp.globalResolution / 2
	}
	segments := 1
	if res > 0 {
		segments = int(math.Round(delay / res))
		if segments < 1 {
			segments = 1
		}
	}

	first := len(cp.nodes)
	segC := (delay / z) / float64(segments)
	segL := (z * delay) / float64(segments)
	for s := 0; s < segments; s++ {
		cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, C: segC})
		cp.appendNode(circmodel.Node{Kind: circmodel.RLSeries, IsPhantom: true, R: circmodel.TRLPhantomSeriesR})
		cp.appendNode(circmodel.Node{Kind: circmodel.RCGround, IsPhantom: true, G: circmodel.TRLPhantomShuntG})
		cp.appendNode(circmodel.Node{Kind: circmodel.RLSeries, L: segL})
	}
	last := len(cp.nodes) - 1
	cp.appendBlock(circmodel.BlockTRL, first, last)
	return nil
}

func (cp *compiler) applyInitial(ln line) error {
	if len(cp.blocks) == 0 {
		return &TopologyError{Line: ln.no, Token: "INITIAL", Kind: AnchorMissing}
	}
	if len(ln.fields) < 3 {
		return &CompileError{Line: ln.no, Token: "INITIAL", Kind: BadNumber}
	}
	v, err := cp.num(ln, 2)
	if err != nil {
		return err
	}
	b := cp.blocks[len(cp.blocks)-1]
	if b.Kind == circmodel.BlockTRL {
		for i := b.First; i <= b.Last; i++ {
			if !cp.nodes[i].HasInitialV {
				cp.nodes[i].HasInitialV = true
				cp.nodes[i].InitialV = v
			}
		}
		return nil
	}
	i := b.Last
	for ; i >= b.First; i-- {
		if !cp.nodes[i].IsPhantom && cp.nodes[i].Kind == circmodel.RCGround {
			break
		}
	}
	if i < b.First {
		return nil
	}
	cp.nodes[i].HasInitialV = true
	cp.nodes[i].InitialV = v
	for j := i - 1; j >= b.First && cp.nodes[j].IsPhantom; j-- {
		cp.nodes[j].HasInitialV = true
		cp.nodes[j].InitialV = v
	}
	return nil
}

func (cp *compiler) registerProbe(ln line) error {
	if len(cp.blocks) == 0 {
		return &TopologyError{Line: ln.no, Token: "TXT", Kind: AnchorMissing}
	}
	if len(ln.fields) < 2 {
		return &CompileError{Line: ln.no, Token: "TXT", Kind: BadNumber}
	}
	label := ln.fields[1]
	b := cp.blocks[len(cp.blocks)-1]

	var kind circmodel.ProbeKind
	var node int
	switch label[0] {
	case 'I', 'i':
		kind = circmodel.ProbeCurrent
		if b.First == 0 {
			node = 0
		} else {
			node = b.First - 1
		}
	case 'V', 'v':
		kind = circmodel.ProbeVoltage
		node = circmodel.LastPhysicalNode(cp.nodes, b.First, b.Last)
		if node < 0 {
			return &TopologyError{Line: ln.no, Token: label, Kind: AnchorMissing}
		}
	default:
		cp.diagnostics = append(cp.diagnostics, "line "+strconv.Itoa(ln.no)+": TXT label "+label+" has no recognized V/I prefix")
		return nil
	}

	cp.probes = append(cp.probes, circmodel.Probe{Kind: kind, Node: node, Label: cp.dedup(label)})
	return nil
}

func (cp *compiler) dedup(label string) string {
	n := cp.labelCounts[label]
	cp.labelCounts[label] = n + 1
	if n == 0 {
		return label
	}
	return label + "_" + strconv.Itoa(n)
}

func (cp *compiler) openBranch(ln line) error {
	if cp.curBranch < 0 {
		cp.branches = append(cp.branches, circmodel.Branch{
			ID: 1, Level: 0, NodeOffset: len(cp.nodes), First: len(cp.nodes), Last: len(cp.nodes) - 1,
		})
		cp.curBranch = 0
		return nil
	}
	newID := len(cp.branches) + 1
	level := cp.branches[cp.curBranch].Level + 1
	if len(cp.pending) == 0 {
		cp.log.Debug("BRANCH with no queued attachment; creating unattached branch", "line", ln.no)
		cp.diagnostics = append(cp.diagnostics, "line "+strconv.Itoa(ln.no)+": BRANCH with no pending TOPBRANCH/ENDBRANCH call")
	} else {
		idx := cp.pending[0]
		cp.pending = cp.pending[1:]
		cp.attachments[idx].ChildBranch = newID
		level = cp.branches[cp.attachments[idx].ParentBranch-1].Level + 1
	}
	cp.branches = append(cp.branches, circmodel.Branch{
		ID: newID, Level: level, NodeOffset: len(cp.nodes), First: len(cp.nodes), Last: len(cp.nodes) - 1,
	})
	cp.curBranch = len(cp.branches) - 1
	return nil
}

// enqueueTop anchors on the last two physical nodes of the current branch
// as a whole, not just the last block: a lumped RCG/RLS/SWITCH block only
// ever contributes one physical node, so a per-block reading would make
// TOPBRANCH unusable after anything but a TRL block.
func (cp *compiler) enqueueTop(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	if len(cp.blocks) == 0 {
		return &TopologyError{Line: ln.no, Token: "TOPBRANCH", Kind: AnchorMissing}
	}
	br := cp.branches[cp.curBranch]
	phys := circmodel.PhysicalNodes(cp.nodes, br.First, br.Last)
	if len(phys) < 2 {
		return &TopologyError{Line: ln.no, Token: "TOPBRANCH", Kind: AnchorMissing}
	}
	left, right := phys[len(phys)-2], phys[len(phys)-1]
	cp.attachments = append(cp.attachments, circmodel.Attachment{
		Kind: circmodel.AttachTop, ParentBranch: br.ID,
		ParentLeft: left, ParentRight: right, Line: ln.no,
	})
	cp.pending = append(cp.pending, len(cp.attachments)-1)
	return nil
}

func (cp *compiler) enqueueEnd(ln line) error {
	if err := cp.requireBranch(ln); err != nil {
		return err
	}
	if len(cp.blocks) == 0 {
		return &TopologyError{Line: ln.no, Token: "ENDBRANCH", Kind: AnchorMissing}
	}
	b := cp.blocks[len(cp.blocks)-1]
	node := circmodel.LastPhysicalNode(cp.nodes, b.First, b.Last)
	if node < 0 {
		return &TopologyError{Line: ln.no, Token: "ENDBRANCH", Kind: AnchorMissing}
	}
	cp.attachments = append(cp.attachments, circmodel.Attachment{
		Kind: circmodel.AttachEnd, ParentBranch: cp.branches[cp.curBranch].ID,
		ParentNode: node, Line: ln.no,
	})
	cp.pending = append(cp.pending, len(cp.attachments)-1)
	return nil
}

func (cp *compiler) finalize() (*circmodel.Circuit, error) {
	if len(cp.pending) != 0 {
		idx := cp.pending[0]
		a := cp.attachments[idx]
		return nil, &TopologyError{Line: a.Line, Token: "BRANCH", Kind: UnboundBranch}
	}
	if len(cp.branches) == 0 {
		return nil, &TopologyError{Line: 0, Token: "BRANCH", Kind: AnchorMissing}
	}
	mainLast := circmodel.LastPhysicalNode(cp.nodes, cp.branches[0].First, cp.branches[0].Last)
	for _, a := range cp.attachments {
		if a.Kind == circmodel.AttachEnd && a.ParentBranch == 1 && a.ParentNode == mainLast {
			return nil, &TopologyError{Line: a.Line, Token: "ENDBRANCH", Kind: EndbranchOnFinalBlock}
		}
	}

	c := &circmodel.Circuit{
		Nodes:            cp.nodes,
		Blocks:           cp.blocks,
		Branches:         cp.branches,
		Attachments:      cp.attachments,
		Probes:           cp.probes,
		Dt:               cp.dt,
		TEnd:             cp.tEnd,
		GlobalResolution: cp.globalResolution,
		Diagnostics:      cp.diagnostics,
	}
	if cp.trlResolutionSet {
		c.TRLResolution = cp.trlResolution
	}
	return c, nil
}
