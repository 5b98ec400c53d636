package council

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNoQuorum   = errors.New("no completed panelists to aggregate")
	ErrIncomplete = errors.New("panelists have not all reached a terminal state")
)

// Agreement classifies how closely the completed panelists' scores sit.
type Agreement string

const (
	AgreementHigh   Agreement = "high"
	AgreementMedium Agreement = "medium"
	AgreementLow    Agreement = "low"
)

// Opinion is one completed panelist's contribution.
type Opinion struct {
	ModelID         string
	Score           int
	ANPS            int
	Recommendations []string
}

// Consensus is the merged council result for one evaluation.
type Consensus struct {
	Score           int
	ANPS            int
	Recommendations []string
	ModelScores     map[string]int
	Agreement       Agreement
}

// Aggregate merges completed panelist opinions. The formula is a policy
// choice: median score and ANPS (average of the two middle values on an
// even count), case-insensitive first-seen recommendation union, and a
// spread-based agreement classification.
func Aggregate(opinions []Opinion) (Consensus, error) {
	if len(opinions) == 0 {
		return Consensus{}, ErrNoQuorum
	}

	scores := make([]int, 0, len(opinions))
	anps := make([]int, 0, len(opinions))
	modelScores := make(map[string]int, len(opinions))
	for _, op := range opinions {
		scores = append(scores, op.Score)
		anps = append(anps, op.ANPS)
		modelScores[op.ModelID] = op.Score
	}

	return Consensus{
		Score:           median(scores),
		ANPS:            median(anps),
		Recommendations: mergeRecommendations(opinions),
		ModelScores:     modelScores,
		Agreement:       classifySpread(spread(scores)),
	}, nil
}

func median(values []int) int {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func spread(values []int) int {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func classifySpread(spread int) Agreement {
	switch {
	case spread <= 10:
		return AgreementHigh
	case spread <= 25:
		return AgreementMedium
	default:
		return AgreementLow
	}
}

// mergeRecommendations unions recommendations across panelists,
// de-duplicated case-insensitively after trimming, first seen wins.
func mergeRecommendations(opinions []Opinion) []string {
	seen := make(map[string]struct{})
	merged := make([]string, 0)
	for _, op := range opinions {
		for _, rec := range op.Recommendations {
			trimmed := strings.TrimSpace(rec)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, trimmed)
		}
	}
	return merged
}
