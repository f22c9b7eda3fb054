package models

// MaxPriorBonus caps the per-candidate confidence contribution from the
// hunter layer.
const MaxPriorBonus = 25

// Candidate is an in-memory discovery produced by a hunter. It lives for
// one cycle and is never persisted.
type Candidate struct {
	URL        string
	Source     SiteSource
	PriorBonus int // 0..MaxPriorBonus
}

// MergeCandidates union-merges candidates by canonical URL, summing prior
// bonuses up to MaxPriorBonus. The first source seen for a URL wins.
func MergeCandidates(canon func(string) string, lists ...[]Candidate) []Candidate {
	byURL := make(map[string]*Candidate)
	var order []string

	for _, list := range lists {
		for _, c := range list {
			key := canon(c.URL)
			if key == "" {
				continue
			}
			existing, ok := byURL[key]
			if !ok {
				merged := c
				merged.URL = key
				if merged.PriorBonus > MaxPriorBonus {
					merged.PriorBonus = MaxPriorBonus
				}
				byURL[key] = &merged
				order = append(order, key)
				continue
			}
			existing.PriorBonus += c.PriorBonus
			if existing.PriorBonus > MaxPriorBonus {
				existing.PriorBonus = MaxPriorBonus
			}
		}
	}

	merged := make([]Candidate, 0, len(order))
	for _, key := range order {
		merged = append(merged, *byURL[key])
	}
	return merged
}
