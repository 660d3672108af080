package solver

import (
	"io"
	"log/slog"
)

// Theta is the default theta-method weight: trapezoidal-leaning, giving
// mild numerical damping. §8 calls out theta=0.5 as a debug mode for
// checking energy non-growth on lossless LC sub-circuits; Options.Theta
// exists so a caller (or cmd/pulsedeck -theta 0.5) can select it without
// touching the assembly code.
const Theta = 0.55

// DiagonalFloor is the near-zero pivot floor applied before elimination
// and before the general fallback factors the dense matrix. It is a fixed
// design choice, not adjusted at runtime based on inputs.
const DiagonalFloor = 1e-25

// Options configures a Solver. The zero value selects Theta and a no-op
// logger.
type Options struct {
	Theta  float64
	Logger *slog.Logger
}

func (o Options) theta() float64 {
	if o.Theta == 0 {
		return Theta
	}
	return o.Theta
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return noopLogger
}

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
