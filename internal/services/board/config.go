package board

import (
	"fmt"
	"runtime"

	"github.com/mcoot/blockmatch/internal/model"
)

// Defaults used by DefaultConfig
const (
	DefaultMinMatch           = 2
	DefaultMaxShuffleAttempts = 100
)

// DefaultTierThresholds maps group sizes to tiers 0..3: below 5 is tier 0,
// 5-7 tier 1, 8-9 tier 2 and 10 or more tier 3.
var DefaultTierThresholds = []int{5, 8, 10}

// Config holds the tunable rules of a board engine
type Config struct {
	// MinMatch is the smallest group a tap may clear
	MinMatch int

	// TierThresholds are the group sizes at which the tier steps up.
	// They must be strictly increasing.
	TierThresholds []int

	// MaxShuffleAttempts caps the permutations tried before a shuffle gives up
	MaxShuffleAttempts int

	// Yield is called once per cell while a shuffle reassigns blocks.
	// A nil Yield never yields.
	Yield func()
}

// DefaultConfig returns the standard rule set
func DefaultConfig() Config {
	thresholds := make([]int, len(DefaultTierThresholds))
	copy(thresholds, DefaultTierThresholds)
	return Config{
		MinMatch:           DefaultMinMatch,
		TierThresholds:     thresholds,
		MaxShuffleAttempts: DefaultMaxShuffleAttempts,
		Yield:              runtime.Gosched,
	}
}

// Validate reports the first rule that makes the config unusable
func (c Config) Validate() error {
	if c.MinMatch < 2 {
		return fmt.Errorf("%w: min match %d must be at least 2", model.ErrInvalidConfig, c.MinMatch)
	}
	if c.MaxShuffleAttempts < 1 {
		return fmt.Errorf("%w: max shuffle attempts %d must be positive", model.ErrInvalidConfig, c.MaxShuffleAttempts)
	}
	return validateThresholds(c.TierThresholds)
}

func validateThresholds(thresholds []int) error {
	prev := 1
	for i, t := range thresholds {
		if t <= prev {
			return fmt.Errorf("%w: tier threshold %d (%d) must be greater than %d", model.ErrInvalidConfig, i, t, prev)
		}
		prev = t
	}
	if len(thresholds) > 255 {
		return fmt.Errorf("%w: too many tier thresholds", model.ErrInvalidConfig)
	}
	return nil
}

func (c Config) yield() {
	if c.Yield != nil {
		c.Yield()
	}
}
