package distribution

import (
	"math"
	"time"
)

const (
	// pdfSpreadScale and pdfSpreadFloor convert the dashboard's spread slider
	// fraction into a usable standard deviation for display. These values are
	// tuned for visual parity with the sampler's behavior; changing them skews
	// the preview curve relative to what actually gets sampled.
	pdfSpreadScale = 0.4
	pdfSpreadFloor = 0.02

	// curveRescaleFloor avoids a division by zero when rescaling an all-zero
	// curve (possible with a zero-spread uniform box that misses every grid x).
	curveRescaleFloor = 0.0001
)

// Height returns a non-negative density-like height for cfg at x in [0, 1].
// This is the visualization/weighting companion to the Sampler: it evaluates
// the curve, it never draws from it.
func Height(cfg Config, x float64) float64 {
	switch cfg.Type {
	case TypeUniform:
		lo := math.Max(cfg.Center-cfg.Spread/2, 0)
		hi := math.Min(cfg.Center+cfg.Spread/2, 1)
		if x >= lo && x <= hi {
			return 1
		}
		return 0
	case TypeTCurve:
		df := float64(clampDF(cfg.DegreesOfFreedom))
		scale := math.Max(cfg.Spread*pdfSpreadScale, pdfSpreadFloor)
		t := (x - cfg.Center) / scale
		num := math.Exp(logGamma((df + 1) / 2))
		den := math.Sqrt(df*math.Pi) * math.Exp(logGamma(df/2))
		return num / den * math.Pow(1+t*t/df, -(df+1)/2) / scale
	default:
		// bell and z-curve share the normal density.
		sigma := math.Max(cfg.Spread*pdfSpreadScale, pdfSpreadFloor)
		z := (x - cfg.Center) / sigma
		return math.Exp(-z*z/2) / (sigma * math.Sqrt(2*math.Pi))
	}
}

// logGamma returns the natural log of the Gamma function. The half-integer
// arguments produced by small degrees-of-freedom arithmetic are served from
// an exact table; everything else uses Stirling's approximation, which is
// plenty for a preview curve. x <= 0 returns 0 so a malformed config can
// never inject a NaN into the output.
func logGamma(x float64) float64 {
	if x <= 0 {
		return 0
	}
	switch x {
	case 0.5:
		return math.Log(math.Sqrt(math.Pi))
	case 1:
		return 0
	case 1.5:
		return math.Log(math.Sqrt(math.Pi) / 2)
	case 2:
		return 0
	case 2.5:
		return math.Log(3 * math.Sqrt(math.Pi) / 4)
	case 3:
		return math.Log(2)
	}
	return (x-0.5)*math.Log(x) - x + 0.5*math.Log(2*math.Pi)
}

// Curve evaluates cfg's density at points evenly spaced x values across
// [0, 1] and rescales the whole sequence so its maximum is exactly 1.0. The
// result is recomputed fresh on every call; nothing is cached or shared.
func Curve(cfg Config, points int) []float64 {
	if points <= 0 {
		return nil
	}
	heights := make([]float64, points)
	var sampleMax float64
	for i := range heights {
		var x float64
		if points > 1 {
			x = float64(i) / float64(points-1)
		}
		h := Height(cfg, x)
		heights[i] = h
		if h > sampleMax {
			sampleMax = h
		}
	}
	scale := math.Max(sampleMax, curveRescaleFloor)
	for i := range heights {
		heights[i] /= scale
	}
	return heights
}

// DatePoint pairs a curve height with the timestamp its x position maps to.
type DatePoint struct {
	Date   time.Time `json:"date"`
	Height float64   `json:"height"`
}

// DateCurve is Curve with each x additionally mapped linearly onto the span
// between start and end, for axis labeling on the date chart.
func DateCurve(cfg Config, start, end time.Time, points int) []DatePoint {
	heights := Curve(cfg, points)
	out := make([]DatePoint, len(heights))
	span := end.Sub(start)
	for i, h := range heights {
		var frac float64
		if len(heights) > 1 {
			frac = float64(i) / float64(len(heights)-1)
		}
		out[i] = DatePoint{
			Date:   start.Add(time.Duration(float64(span) * frac)),
			Height: h,
		}
	}
	return out
}
