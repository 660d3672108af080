package solver

import (
	"context"
	"math"
	"testing"

	"github.com/pulsepower/pulsedeck/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRCDischargeDecaysMonotonically(t *testing.T) {
	src := `
TIME-STEP 1e-9
END-TIME 1e-6
BRANCH
RCG 50 1e-9
INITIAL V 1000
TXT V1
`
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c)
	prev, err := s.InitialProbe("V1")
	require.NoError(t, err)
	require.Equal(t, 1000.0, prev)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		require.NoError(t, s.Step(ctx))
		v, err := s.Probe("V1")
		require.NoError(t, err)
		assert.LessOrEqual(t, v, prev, "RC discharge voltage must not increase step %d", i)
		assert.Greater(t, v, 0.0, "RC discharge voltage must stay positive (no ground crossing) step %d", i)
		prev = v
	}
}

func TestLCOscillatorConservesBoundedEnergy(t *testing.T) {
	src := `
TIME-STEP 1e-10
END-TIME 1e-7
BRANCH
RCG 1e12 1e-9
INITIAL V 100
TXT V1
RLS 1e-6 1e-9
RCG 1e12 1e-9
`
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c, Options{Theta: 0.5})
	ctx := context.Background()
	maxAbs := 0.0
	for i := 0; i < 200; i++ {
		require.NoError(t, s.Step(ctx))
		v, err := s.Probe("V1")
		require.NoError(t, err)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		if math.Abs(v) > maxAbs {
			maxAbs = math.Abs(v)
		}
	}
	assert.Less(t, maxAbs, 500.0, "lossless LC amplitude should stay bounded near the initial 100V")
}

func TestInstantSwitchChangesResistanceAtTSwitch(t *testing.T) {
	src := `
TIME-STEP 1e-9
END-TIME 1e-7
BRANCH
RCG 10 1e-9
INITIAL V 500
SWITCH INSTANT 1e6 1 5e-8
RCG 10
TXT V1
`
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		require.NoError(t, s.Step(ctx))
	}
	v, err := s.Probe("V1")
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))

	sw := c.Nodes[3]
	require.True(t, sw.IsSwitch())
	assert.Equal(t, 1.0, sw.R, "switch resistance after TSwitch should be RClose")
}

func TestEndbranchCouplingProducesFiniteResult(t *testing.T) {
	src := `
TIME-STEP 1e-9
END-TIME 5e-8
BRANCH
RCG 50 1e-9
RLS 5 1e-9
ENDBRANCH
RCG 50 1e-9
BRANCH
RCG 50 1e-9
TXT V1
`
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Step(ctx))
	}
	v, err := s.Probe("V1")
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
}

func TestTopbranchCouplingProducesFiniteResult(t *testing.T) {
	src := `
TIME-STEP 1e-9
END-TIME 5e-8
BRANCH
RCG 50 1e-9
RLS 5 1e-9
TOPBRANCH
BRANCH
RCG 50 1e-9
TXT V1
`
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Step(ctx))
	}
	v, err := s.Probe("V1")
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
}

func TestStepRespectsCancelledContext(t *testing.T) {
	src := "BRANCH\nRCG 10\n"
	c, err := deck.CompileString(src)
	require.NoError(t, err)

	s := New(c)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Step(ctx)
	assert.Error(t, err)
}

func TestProbeUnknownLabel(t *testing.T) {
	c, err := deck.CompileString("BRANCH\nRCG 10\n")
	require.NoError(t, err)
	s := New(c)
	_, err = s.Probe("nope")
	assert.Error(t, err)
}
