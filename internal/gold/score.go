package gold

import "strings"

// MatchConfig holds the fuzzy-match tuning knobs. Defaults come from
// config.ResolveConfig; tests set them directly.
type MatchConfig struct {
	MergeThreshold float64
	NameFloor      float64
	SecondaryBonus float64
	MaxScore       float64
}

// Discriminator is one secondary field pair compared during scoring.
// A bonus applies only when both sides are non-empty and equal.
type Discriminator struct {
	A, B string
}

// Score computes the fuzzy match score between two records: the name
// similarity, plus a fixed bonus per agreeing secondary discriminator,
// capped below 1.0 so only an exact source reference yields certainty.
// A name similarity below the floor scores 0 outright; secondary fields
// cannot rescue a bad name match.
func (c MatchConfig) Score(nameA, nameB string, discriminators ...Discriminator) float64 {
	sim := NameSimilarity(nameA, nameB)
	if sim < c.NameFloor {
		return 0
	}
	score := sim
	for _, d := range discriminators {
		a := strings.TrimSpace(d.A)
		b := strings.TrimSpace(d.B)
		if a != "" && b != "" && strings.EqualFold(a, b) {
			score += c.SecondaryBonus
		}
	}
	if score > c.MaxScore {
		score = c.MaxScore
	}
	return score
}

// best returns the index of the highest-scoring entry and whether the top
// score is shared by more than one entry. Scores below the merge threshold
// are ignored.
func (c MatchConfig) best(scores []float64) (idx int, tied, found bool) {
	bestScore := 0.0
	for i, s := range scores {
		if s < c.MergeThreshold {
			continue
		}
		switch {
		case !found || s > bestScore:
			idx, bestScore, tied, found = i, s, false, true
		case s == bestScore:
			tied = true
		}
	}
	return idx, tied, found
}
