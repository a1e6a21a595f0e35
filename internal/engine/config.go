package engine

import (
	"fmt"

	"ward.fit/collate/internal/similarity"
)

const (
	DefaultThresholdNear     = 0.85
	DefaultThresholdSentence = 0.85
	DefaultComplementaryMin  = 0.30
	DefaultComplementaryMax  = 0.60
)

// Config is the immutable knob set threaded through every phase call.
// Constructed once per pipeline; never a singleton or ambient global.
type Config struct {
	Weights            similarity.Weights
	ThresholdNear      float64
	ThresholdSentence  float64
	ComplementaryMin   float64
	ComplementaryMax   float64
	PreserveChronology bool
	MergeComplementary bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Weights:            similarity.DefaultWeights(),
		ThresholdNear:      DefaultThresholdNear,
		ThresholdSentence:  DefaultThresholdSentence,
		ComplementaryMin:   DefaultComplementaryMin,
		ComplementaryMax:   DefaultComplementaryMax,
		PreserveChronology: true,
		MergeComplementary: true,
	}
}

// Validate rejects configurations at construction time: weights not
// summing to 1.0, thresholds outside [0,1], inverted complementary range.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for name, value := range map[string]float64{
		"threshold_near":     c.ThresholdNear,
		"threshold_sentence": c.ThresholdSentence,
		"complementary_min":  c.ComplementaryMin,
		"complementary_max":  c.ComplementaryMax,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %.6f", name, value)
		}
	}
	if c.ComplementaryMin >= c.ComplementaryMax {
		return fmt.Errorf("complementary range [%.2f, %.2f) is empty", c.ComplementaryMin, c.ComplementaryMax)
	}
	return nil
}
