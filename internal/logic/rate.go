package logic

// DefaultBands are the ratio edges used when none are configured.
var DefaultBands = Bands{Behind: 0.9, Ahead: 1.1}

// RateEstimator compares measured rates against a goal.
type RateEstimator struct {
	bands Bands
}

// NewRateEstimator creates an estimator with the given band edges.
func NewRateEstimator(bands Bands) *RateEstimator {
	return &RateEstimator{bands: bands}
}

// Evaluate returns the deviation of windowRate from targetRate.
// A non-positive target is rejected at startup and not handled here.
func (e *RateEstimator) Evaluate(windowRate, targetRate float64) Deviation {
	ratio := windowRate / targetRate
	return Deviation{Ratio: ratio, Band: e.classify(ratio)}
}

func (e *RateEstimator) classify(ratio float64) Band {
	switch {
	case ratio < e.bands.Behind:
		return BandBehind
	case ratio > e.bands.Ahead:
		return BandAhead
	default:
		return BandOnPace
	}
}
