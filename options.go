package segeval

import (
	"log/slog"
	"math"
	"runtime"
)

// DefaultThreshold is the inference-mode binarization threshold. Training
// pipelines commonly binarize lower (0.3 is typical); callers whose use
// case differs must pass WithThreshold explicitly.
const DefaultThreshold = 0.5

// Option configures an Evaluator.
type Option func(*config)

type config struct {
	threshold float32
	epsilon   float64
	workers   int
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		threshold: DefaultThreshold,
		epsilon:   machineEpsilon,
		workers:   runtime.NumCPU(),
		logger:    slog.Default(),
	}
}

// machineEpsilon smooths IoU denominators. It is far below one pixel, so a
// class with any support is unaffected while an absent class resolves to an
// IoU of 1 instead of 0/0.
var machineEpsilon = math.Nextafter(1, 2) - 1

// WithThreshold sets the heatmap binarization threshold, in (0,1).
// A confidence exactly equal to the threshold counts as absent.
func WithThreshold(t float32) Option {
	return func(c *config) {
		if t > 0 && t < 1 {
			c.threshold = t
		}
	}
}

// WithEpsilon overrides the IoU smoothing constant (default: float64
// machine epsilon).
func WithEpsilon(eps float64) Option {
	return func(c *config) {
		if eps > 0 {
			c.epsilon = eps
		}
	}
}

// WithWorkers sets the number of page workers (default: runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
