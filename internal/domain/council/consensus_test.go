package council

import (
	"reflect"
	"testing"
)

func TestAggregateEvenCountAveragesMiddle(t *testing.T) {
	opinions := []Opinion{
		{ModelID: "m1", Score: 40, ANPS: 10},
		{ModelID: "m2", Score: 60, ANPS: 20},
		{ModelID: "m3", Score: 80, ANPS: 40},
		{ModelID: "m4", Score: 20, ANPS: -10},
	}

	got, err := Aggregate(opinions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if got.Score != 50 {
		t.Fatalf("score = %d, want 50", got.Score)
	}
	if got.ANPS != 15 {
		t.Fatalf("anps = %d, want 15", got.ANPS)
	}
	if got.Agreement != AgreementLow {
		t.Fatalf("agreement = %q, want low", got.Agreement)
	}
}

func TestAggregateOddCountTakesMedian(t *testing.T) {
	opinions := []Opinion{
		{ModelID: "m1", Score: 70, ANPS: 30},
		{ModelID: "m2", Score: 72, ANPS: 35},
		{ModelID: "m3", Score: 75, ANPS: 40},
	}

	got, err := Aggregate(opinions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if got.Score != 72 {
		t.Fatalf("score = %d, want 72", got.Score)
	}
	if got.Agreement != AgreementHigh {
		t.Fatalf("agreement = %q, want high", got.Agreement)
	}
	if got.ModelScores["m3"] != 75 {
		t.Fatalf("model scores = %v", got.ModelScores)
	}
}

func TestAgreementClassification(t *testing.T) {
	cases := []struct {
		name   string
		scores []int
		want   Agreement
	}{
		{"single panelist", []int{55}, AgreementHigh},
		{"spread at ten", []int{50, 60}, AgreementHigh},
		{"spread at twenty five", []int{50, 75}, AgreementMedium},
		{"wide spread", []int{10, 90}, AgreementLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opinions := make([]Opinion, 0, len(tc.scores))
			for i, s := range tc.scores {
				opinions = append(opinions, Opinion{ModelID: string(rune('a' + i)), Score: s})
			}
			got, err := Aggregate(opinions)
			if err != nil {
				t.Fatalf("aggregate: %v", err)
			}
			if got.Agreement != tc.want {
				t.Fatalf("agreement = %q, want %q", got.Agreement, tc.want)
			}
		})
	}
}

func TestAggregateMergesRecommendations(t *testing.T) {
	opinions := []Opinion{
		{ModelID: "m1", Score: 50, Recommendations: []string{" Add alt text ", "Use semantic HTML"}},
		{ModelID: "m2", Score: 52, Recommendations: []string{"add alt text", "Expose a sitemap", ""}},
	}

	got, err := Aggregate(opinions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	want := []string{"Add alt text", "Use semantic HTML", "Expose a sitemap"}
	if !reflect.DeepEqual(got.Recommendations, want) {
		t.Fatalf("recommendations = %v, want %v", got.Recommendations, want)
	}
}

func TestAggregateNoQuorum(t *testing.T) {
	if _, err := Aggregate(nil); err != ErrNoQuorum {
		t.Fatalf("err = %v, want ErrNoQuorum", err)
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	opinions := []Opinion{
		{ModelID: "m1", Score: 61, ANPS: 5, Recommendations: []string{"a", "b"}},
		{ModelID: "m2", Score: 58, ANPS: 12, Recommendations: []string{"B", "c"}},
	}

	first, err := Aggregate(opinions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := Aggregate(opinions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregate not deterministic: %+v vs %+v", first, second)
	}
}
