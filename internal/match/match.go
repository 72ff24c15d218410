package match

import (
	"math"
	"sort"
)

// Criteria is a profile's matchmaking attribute set. Every field is optional:
// an empty string or empty slice means "not filled in" and the criterion is
// skipped during scoring rather than counted as a mismatch.
//
// The producing UI caps multi-valued fields at three entries, but the scorer
// tolerates any size.
type Criteria struct {
	LifeFocus      string   `json:"life_focus,omitempty"`
	ExecutionStyle string   `json:"execution_style,omitempty"`
	Personality    string   `json:"personality,omitempty"`
	Intent         string   `json:"intent,omitempty"`
	Stage          string   `json:"stage,omitempty"`
	Values         []string `json:"values,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	Industries     []string `json:"industries,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	Availability   []string `json:"availability,omitempty"`
}

// Weights maps criterion names to their contribution weight. Built once at
// startup and passed into Score; never mutated afterwards.
type Weights map[string]float64

// DefaultWeights returns the production criterion weights.
func DefaultWeights() Weights {
	return Weights{
		"life_focus":      1.5,
		"execution_style": 1.5,
		"personality":     1.5,
		"skills":          1.5,
		"values":          2.0,
		"intent":          2.0,
		"stage":           1.0,
		"interests":       1.0,
		"industries":      1.0,
		"languages":       1.0,
		"availability":    1.0,
	}
}

// criterion is one comparable attribute pair, extracted in the fixed scoring order.
type criterion struct {
	name   string
	single bool
	a, b   string
	as, bs []string
}

func criteria(a, b Criteria) []criterion {
	return []criterion{
		{name: "life_focus", single: true, a: a.LifeFocus, b: b.LifeFocus},
		{name: "execution_style", single: true, a: a.ExecutionStyle, b: b.ExecutionStyle},
		{name: "personality", single: true, a: a.Personality, b: b.Personality},
		{name: "intent", single: true, a: a.Intent, b: b.Intent},
		{name: "stage", single: true, a: a.Stage, b: b.Stage},
		{name: "values", as: a.Values, bs: b.Values},
		{name: "skills", as: a.Skills, bs: b.Skills},
		{name: "interests", as: a.Interests, bs: b.Interests},
		{name: "industries", as: a.Industries, bs: b.Industries},
		{name: "languages", as: a.Languages, bs: b.Languages},
		{name: "availability", as: a.Availability, bs: b.Availability},
	}
}

// Score computes the weighted compatibility between two profiles, 0-100.
//
// A criterion absent on either side contributes to neither the numerator nor
// the weight sum. Two profiles with no comparable criteria score 0: absence
// of data is never rewarded as a match.
func Score(a, b Criteria, weights Weights) int {
	var total, weightSum float64

	for _, c := range criteria(a, b) {
		var raw float64
		if c.single {
			if c.a == "" || c.b == "" {
				continue
			}
			if c.a == c.b {
				raw = 100
			}
		} else {
			if len(c.as) == 0 || len(c.bs) == 0 {
				continue
			}
			raw = overlap(c.as, c.bs)
		}

		w := weights[c.name]
		if w == 0 {
			w = 1.0
		}
		total += raw * w
		weightSum += w
	}

	if weightSum == 0 {
		return 0
	}
	return int(math.Round(total / weightSum))
}

// overlap scores two sets as 100*|intersection|/max(|a|,|b|). The larger set
// is the denominator, not the union, so a small precise profile matched
// against a broad one is not penalized as harshly as Jaccard would.
func overlap(a, b []string) float64 {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b))
	common := 0
	for _, v := range b {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			common++
		}
	}
	denom := len(set)
	if len(seen) > denom {
		denom = len(seen)
	}
	return 100 * float64(common) / float64(denom)
}

// Candidate is a scored matchmaking target (a tribe or a peer).
type Candidate struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Criteria Criteria `json:"-"`
	Score    int      `json:"score"`
}

// Rank scores every candidate against the user's profile and sorts descending.
// The sort is stable: ties keep their input order, since no secondary key is
// defined upstream.
func Rank(user Criteria, candidates []Candidate, weights Weights) []Candidate {
	for i := range candidates {
		candidates[i].Score = Score(user, candidates[i].Criteria, weights)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}
