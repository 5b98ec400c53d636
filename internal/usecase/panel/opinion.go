package panel

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ModelOpinion is the structured verdict a panelist must return. Scores
// are 0..100, ANPS is -100..100.
type ModelOpinion struct {
	Score           int            `json:"score"`
	ANPS            int            `json:"anps"`
	Factors         map[string]int `json:"factors,omitempty"`
	Accessibility   string         `json:"accessibility,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
}

var errNoJSONObject = errors.New("response contains no JSON object")

// parseOpinion extracts and validates the opinion object from a raw
// model response. Models wrap JSON in code fences or prose often enough
// that we cut from the first '{' to the last '}' before decoding.
func parseOpinion(raw string) (ModelOpinion, error) {
	body := strings.TrimSpace(raw)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return ModelOpinion{}, errNoJSONObject
	}

	var opinion ModelOpinion
	if err := json.Unmarshal([]byte(body[start:end+1]), &opinion); err != nil {
		return ModelOpinion{}, fmt.Errorf("decode opinion: %w", err)
	}

	if opinion.Score < 0 || opinion.Score > 100 {
		return ModelOpinion{}, fmt.Errorf("score %d out of range", opinion.Score)
	}
	if opinion.ANPS < -100 || opinion.ANPS > 100 {
		return ModelOpinion{}, fmt.Errorf("anps %d out of range", opinion.ANPS)
	}
	for factor, value := range opinion.Factors {
		if value < 0 || value > 100 {
			return ModelOpinion{}, fmt.Errorf("factor %q value %d out of range", factor, value)
		}
	}
	return opinion, nil
}
