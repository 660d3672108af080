package deck

import (
	"testing"

	"github.com/pulsepower/pulsedeck/circmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSimpleRCDischarge(t *testing.T) {
	src := `
! single-branch RC discharge
TIME-STEP 1e-9
END-TIME 1e-6
BRANCH
RCG 50 1e-9
INITIAL V 1000
TXT V1
`
	c, err := CompileString(src)
	require.NoError(t, err)
	require.Len(t, c.Branches, 1)
	assert.Equal(t, 1e-9, c.Dt)
	assert.Equal(t, 1e-6, c.TEnd)
	require.Len(t, c.Probes, 1)
	assert.Equal(t, circmodel.ProbeVoltage, c.Probes[0].Kind)
	assert.Equal(t, "V1", c.Probes[0].Label)

	node := c.Nodes[c.Probes[0].Node]
	assert.True(t, node.HasInitialV)
	assert.Equal(t, 1000.0, node.InitialV)
	assert.Equal(t, circmodel.RCGround, node.Kind)
}

func TestCompileLabelDeduplication(t *testing.T) {
	src := `
BRANCH
RCG 10
TXT V1
RCG 10
TXT V1
RCG 10
TXT V1
`
	c, err := CompileString(src)
	require.NoError(t, err)
	require.Len(t, c.Probes, 3)
	assert.Equal(t, "V1", c.Probes[0].Label)
	assert.Equal(t, "V1_1", c.Probes[1].Label)
	assert.Equal(t, "V1_2", c.Probes[2].Label)
}

func TestCompileBadNumberIsCompileError(t *testing.T) {
	_, err := CompileString("BRANCH\nRCG notanumber\n")
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, BadNumber, ce.Kind)
}

func TestCompileUnboundBranchIsTopologyError(t *testing.T) {
	src := `
BRANCH
RCG 10
RLS 5
TOPBRANCH
`
	_, err := CompileString(src)
	require.Error(t, err)
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, UnboundBranch, te.Kind)
}

func TestCompileEndbranchOnFinalBlockIsTopologyError(t *testing.T) {
	src := `
BRANCH
RCG 10
RLS 5
ENDBRANCH
BRANCH
RCG 10
`
	_, err := CompileString(src)
	require.Error(t, err)
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, EndbranchOnFinalBlock, te.Kind)
}

func TestCompileEndbranchOnEarlierBlockIsAccepted(t *testing.T) {
	src := `
BRANCH
RCG 10
RLS 5
ENDBRANCH
RCG 10
BRANCH
RCG 10
`
	c, err := CompileString(src)
	require.NoError(t, err)
	require.Len(t, c.Branches, 2)
	require.Len(t, c.Attachments, 1)
	assert.Equal(t, circmodel.AttachEnd, c.Attachments[0].Kind)
	assert.Equal(t, 2, c.Attachments[0].ChildBranch)
}

func TestCompileTopbranchBindsLastTwoPhysicalNodes(t *testing.T) {
	src := `
BRANCH
RCG 10
RLS 5
TOPBRANCH
BRANCH
RCG 10
`
	c, err := CompileString(src)
	require.NoError(t, err)
	require.Len(t, c.Attachments, 1)
	a := c.Attachments[0]
	assert.Equal(t, circmodel.AttachTop, a.Kind)
	assert.Less(t, a.ParentLeft, a.ParentRight)
}

func TestCompileAnchorMissingBeforeFirstBranch(t *testing.T) {
	_, err := CompileString("RCG 10\n")
	require.Error(t, err)
	var te *TopologyError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, AnchorMissing, te.Kind)
}

func TestCompileTRLExpandsIntoSegments(t *testing.T) {
	src := `
BRANCH
TRL LINEAR 1e-8 50 5e-9
TXT V1
`
	c, err := CompileString(src)
	require.NoError(t, err)
	require.Len(t, c.Blocks, 1)
	assert.Equal(t, circmodel.BlockTRL, c.Blocks[0].Kind)
	segments := c.Blocks[0].Last - c.Blocks[0].First + 1
	assert.Equal(t, 8, segments) // 4 nodes/segment * 2 segments (1e-8/5e-9)
}

func TestCompileIgnoresUnknownCommand(t *testing.T) {
	src := `
BRANCH
RCG 10
FROBNICATE 1 2 3
TXT V1
`
	c, err := CompileString(src)
	require.NoError(t, err)
	assert.NotEmpty(t, c.Diagnostics)
}
