package distribution

// Type names one of the supported distribution shapes.
type Type string

const (
	// TypeUniform ignores Center and Spread and draws evenly over the range.
	TypeUniform Type = "uniform"
	// TypeBell is a normal distribution parameterized by Center and Spread.
	TypeBell Type = "bell"
	// TypeZCurve samples identically to TypeBell. It stays a distinct option
	// because the dashboard presents "z-curve" as its own named choice.
	TypeZCurve Type = "z-curve"
	// TypeTCurve is a Student's t distribution; heavier tails than bell.
	TypeTCurve Type = "t-curve"
)

// Config parameterizes non-uniform sampling. Center and Spread are fractions
// of whatever target range the config is applied to rather than absolute
// values, so one config can drive sampling over an integer digit range and a
// multi-year date span alike.
type Config struct {
	Type             Type    `json:"type"`
	Center           float64 `json:"center"`
	Spread           float64 `json:"spread"`
	DegreesOfFreedom int     `json:"degreesOfFreedom,omitempty"`
}

// DefaultConfig returns the configuration the dashboard starts from: a
// centered bell covering half the target range.
func DefaultConfig() Config {
	return Config{
		Type:             TypeBell,
		Center:           0.5,
		Spread:           0.5,
		DegreesOfFreedom: 5,
	}
}

// clampDF keeps degrees of freedom inside the range the UI can express.
// Anything outside becomes the nearest bound rather than an error.
func clampDF(df int) int {
	if df < 1 {
		return 1
	}
	if df > 30 {
		return 30
	}
	return df
}
