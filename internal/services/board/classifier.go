package board

import (
	"github.com/mcoot/blockmatch/internal/model"
)

// Classifier maps group sizes to tiers with a step function over thresholds
type Classifier struct {
	thresholds []int
}

// NewClassifier creates a Classifier. Thresholds must be strictly
// increasing and at least 2.
func NewClassifier(thresholds []int) (*Classifier, error) {
	if err := validateThresholds(thresholds); err != nil {
		return nil, err
	}
	t := make([]int, len(thresholds))
	copy(t, thresholds)
	return &Classifier{thresholds: t}, nil
}

// TierFor returns the number of thresholds the size reaches
func (c *Classifier) TierFor(size int) model.Tier {
	tier := 0
	for _, t := range c.thresholds {
		if size < t {
			break
		}
		tier++
	}
	return model.Tier(tier)
}

// Classify sets every member block's tier from the group size and notifies
// the sink for the blocks whose tier changed. It returns the number of
// changed blocks; classifying an unchanged group again changes nothing.
func (c *Classifier) Classify(g *model.Grid, group model.Group, sink Sink) int {
	tier := c.TierFor(len(group))
	changed := 0
	for _, pos := range group {
		b := g.At(pos)
		if b == nil || b.Tier == tier {
			continue
		}
		b.Tier = tier
		changed++
		sink.BlockTierChanged(b, tier)
	}
	return changed
}
