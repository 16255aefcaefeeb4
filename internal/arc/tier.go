package arc

import (
	"fmt"
	"math"
	"sort"
)

// Tier is a discrete growth stage of the tree asset.
type Tier struct {
	Index int    `json:"index"` // 1-based
	Count int    `json:"count"`
	Asset string `json:"asset"`
	Name  string `json:"name"`
}

// TierSelector buckets a progress percentage into a Tier.
type TierSelector interface {
	Select(progress float64) Tier
}

// Tier strategies accepted by ParseTierStrategy.
const (
	StrategyProportional = "proportional"
	StrategyBreakpoints  = "breakpoints"
)

// DefaultTierCount is the number of tree stages shipped with the app.
const DefaultTierCount = 10

// DefaultTiers is the selector used when none is configured.
var DefaultTiers TierSelector = Proportional{N: DefaultTierCount}

// LegacyBreakpoints is the older five-stage scheme (>=80, >=60, >=40, >=20, else).
var LegacyBreakpoints = Breakpoints{Thresholds: []float64{20, 40, 60, 80}}

var tenStageNames = []string{
	"Dead Tree",
	"Dying Tree",
	"Sick Tree",
	"Weak Tree",
	"Average Tree",
	"Good Tree",
	"Advanced Tree",
	"Expert Tree",
	"Master Tree",
	"Legendary Tree",
}

// Proportional splits [0,100] into N equal buckets: ceil(p/100*N) in [1,N].
type Proportional struct {
	N int
}

// Select implements TierSelector.
func (s Proportional) Select(progress float64) Tier {
	n := s.N
	if n < 1 {
		n = DefaultTierCount
	}
	idx := int(math.Ceil(clampPct(progress) / 100 * float64(n)))
	if idx < 1 {
		idx = 1
	}
	if idx > n {
		idx = n
	}
	return newTier(idx, n)
}

// Breakpoints selects tier i+1 once progress reaches Thresholds[i-1].
// Thresholds must be ascending; the tier count is len(Thresholds)+1.
type Breakpoints struct {
	Thresholds []float64
}

// Select implements TierSelector.
func (s Breakpoints) Select(progress float64) Tier {
	p := clampPct(progress)
	n := len(s.Thresholds) + 1
	// number of thresholds <= p
	idx := sort.Search(len(s.Thresholds), func(i int) bool { return s.Thresholds[i] > p }) + 1
	return newTier(idx, n)
}

// ParseTierStrategy builds a selector from configuration values.
func ParseTierStrategy(name string, count int) (TierSelector, error) {
	switch name {
	case "", StrategyProportional:
		if count < 1 {
			return nil, fmt.Errorf("arc: tier count must be >= 1, got %d", count)
		}
		return Proportional{N: count}, nil
	case StrategyBreakpoints:
		return LegacyBreakpoints, nil
	}
	return nil, fmt.Errorf("arc: unknown tier strategy %q", name)
}

func newTier(idx, n int) Tier {
	return Tier{
		Index: idx,
		Count: n,
		Asset: fmt.Sprintf("tree%d", idx),
		Name:  tierName(idx, n),
	}
}

func tierName(idx, n int) string {
	if n == len(tenStageNames) {
		return tenStageNames[idx-1]
	}
	return fmt.Sprintf("Stage %d of %d", idx, n)
}
