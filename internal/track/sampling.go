package track

import "fmt"

// SamplingPolicy thins a trajectory before it is stored. With PerDay set, only
// the first fix of each calendar day is considered; Stride then keeps one of
// every Stride candidates, starting with the first.
type SamplingPolicy struct {
	PerDay bool
	Stride int
}

// DefaultSampling keeps one fix every two days
func DefaultSampling() SamplingPolicy {
	return SamplingPolicy{PerDay: true, Stride: 2}
}

// NewSamplingPolicy builds a policy from its configured mode ("daily" or "raw")
func NewSamplingPolicy(mode string, stride int) (SamplingPolicy, error) {
	switch mode {
	case "", "daily":
		return SamplingPolicy{PerDay: true, Stride: stride}, nil
	case "raw":
		return SamplingPolicy{PerDay: false, Stride: stride}, nil
	default:
		return SamplingPolicy{}, fmt.Errorf("unknown sampling mode %q", mode)
	}
}

// Select returns the indexes of the fixes to keep. fixes must be sorted by time.
func (p SamplingPolicy) Select(fixes []Fix) []int {
	candidates := make([]int, 0, len(fixes))
	for i, f := range fixes {
		if p.PerDay && i > 0 && sameDay(fixes[i-1].Time, f.Time) {
			continue
		}
		candidates = append(candidates, i)
	}

	if p.Stride <= 1 {
		return candidates
	}

	kept := make([]int, 0, len(candidates)/p.Stride+1)
	for i := 0; i < len(candidates); i += p.Stride {
		kept = append(kept, candidates[i])
	}
	return kept
}
