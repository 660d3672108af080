package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pulsepower/pulsedeck/deck"
	"github.com/pulsepower/pulsedeck/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRunProducesOneSamplePerStepPlusInitial(t *testing.T) {
	c, err := deck.CompileString(`
TIME-STEP 1e-9
END-TIME 1e-8
BRANCH
RCG 50 1e-9
INITIAL V 10
TXT V1
`)
	require.NoError(t, err)
	s := solver.New(c)
	rec := NewRecorder(s, []string{"V1"})
	require.NoError(t, rec.Run(context.Background(), c.TEnd))

	// roughly 10 steps of 1e-9 to reach 1e-8, plus the t=0 initial sample;
	// float accumulation in Time can take one extra step to reach TEnd.
	assert.GreaterOrEqual(t, len(rec.Samples()), 10)
	assert.LessOrEqual(t, len(rec.Samples()), 12)
	assert.Equal(t, 0.0, rec.Samples()[0].Time)
	assert.Equal(t, 10.0, rec.Samples()[0].Values[0])
	assert.GreaterOrEqual(t, rec.Samples()[len(rec.Samples())-1].Time, c.TEnd)
}

func TestWriteTableFormat(t *testing.T) {
	samples := []Sample{
		{Time: 0, Values: []float64{1, 2}},
		{Time: 1e-9, Values: []float64{0.9, 1.8}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"V1", "I1"}, samples))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time\tV1\tI1", lines[0])
}

func TestSmoothPreservesLength(t *testing.T) {
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i] = Sample{Time: float64(i), Values: []float64{float64(i % 2)}}
	}
	out := Smooth(samples, 1)
	assert.Len(t, out, len(samples))
	for i, s := range out {
		assert.Equal(t, float64(i), s.Time)
	}
}

func TestSmoothZeroHalfIsNoOp(t *testing.T) {
	samples := []Sample{{Time: 0, Values: []float64{5}}}
	out := Smooth(samples, 0)
	assert.Equal(t, samples, out)
}

func TestDownsampleKeepsFirstAndLast(t *testing.T) {
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i] = Sample{Time: float64(i)}
	}
	out, err := Downsample(samples, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0].Time)
	assert.Equal(t, 9.0, out[len(out)-1].Time)
}

func TestDownsampleRejectsInvalidStride(t *testing.T) {
	_, err := Downsample(nil, 0)
	assert.Error(t, err)
}
