package evaluation

import (
	"fmt"
	"net/url"
	"strings"
)

// TargetAudience describes who the subject site is evaluated for.
// At least one field must be set.
type TargetAudience struct {
	AgeRange   string   `json:"age_range,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Location   string   `json:"location,omitempty"`
	Occupation string   `json:"occupation,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

func (a TargetAudience) Empty() bool {
	return a.AgeRange == "" && a.Gender == "" && a.Location == "" &&
		a.Occupation == "" && len(a.Interests) == 0
}

// Describe renders the audience as a short prose fragment for prompts
// and dispatch payloads.
func (a TargetAudience) Describe() string {
	parts := make([]string, 0, 5)
	if a.AgeRange != "" {
		parts = append(parts, "age "+a.AgeRange)
	}
	if a.Gender != "" {
		parts = append(parts, a.Gender)
	}
	if a.Occupation != "" {
		parts = append(parts, a.Occupation)
	}
	if a.Location != "" {
		parts = append(parts, "in "+a.Location)
	}
	if len(a.Interests) > 0 {
		parts = append(parts, "interested in "+strings.Join(a.Interests, ", "))
	}
	if len(parts) == 0 {
		return "a general audience"
	}
	return strings.Join(parts, ", ")
}

// NormalizeSubjectURL validates the subject URL, defaulting a missing
// scheme to https.
func NormalizeSubjectURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrSubjectURLRequired
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSubjectURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSubjectURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidSubjectURL, raw)
	}

	return parsed.String(), nil
}
