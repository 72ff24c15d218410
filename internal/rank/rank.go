package rank

import (
	"math"
	"sort"
)

// minGritFactor keeps a zero-grit user from scoring an absolute zero, which
// would erase their level and XP contributions entirely.
const minGritFactor = 0.1

// GlobalScore reduces a user's ledger outputs plus reputation to the single
// ranking number shown everywhere in the product. Every surface that displays
// a ranking must call this function rather than inlining the arithmetic.
//
// XP and reputation are floored at 1 so a brand-new user is still
// distinguishable from one who never registered.
func GlobalScore(level, grit, currentXP, reputation int) int {
	gritFactor := float64(grit) / 100
	if gritFactor < minGritFactor {
		gritFactor = minGritFactor
	}
	xp := currentXP
	if xp < 1 {
		xp = 1
	}
	rep := reputation
	if rep < 1 {
		rep = 1
	}
	return int(math.Round(float64(level) * gritFactor * float64(xp) * float64(rep)))
}

// Entry is one scored row of a leaderboard.
type Entry struct {
	UserID      string `json:"user_id"`
	Level       int    `json:"level"`
	Grit        int    `json:"grit"`
	CurrentXP   int    `json:"current_xp"`
	Reputation  int    `json:"reputation"`
	GlobalScore int    `json:"global_score"`
}

// Leaderboard fills in each entry's GlobalScore and sorts descending.
// The sort is stable: ties keep their input order.
func Leaderboard(entries []Entry) []Entry {
	for i := range entries {
		entries[i].GlobalScore = GlobalScore(entries[i].Level, entries[i].Grit, entries[i].CurrentXP, entries[i].Reputation)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].GlobalScore > entries[j].GlobalScore
	})
	return entries
}

// Top ranks the entries and keeps the first limit. The cut happens after
// scoring and sorting, so a high scorer can never be truncated away by the
// order the rows arrived in.
func Top(entries []Entry, limit int) []Entry {
	entries = Leaderboard(entries)
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
