package rank

import "testing"

func TestGlobalScore(t *testing.T) {
	tests := []struct {
		name                        string
		level, grit, currentXP, rep int
		want                        int
	}{
		{"floors at 1 for xp and reputation", 5, 100, 0, 0, 5},
		{"full grit", 3, 100, 500, 2, 3000},
		{"half grit", 4, 50, 100, 1, 200},
		{"zero grit uses 0.1 floor", 10, 0, 100, 1, 100},
		{"rounding", 3, 33, 7, 1, 7}, // 3 * 0.33 * 7 = 6.93
		{"negative reputation floored", 2, 100, 10, -5, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GlobalScore(tt.level, tt.grit, tt.currentXP, tt.rep)
			if got != tt.want {
				t.Errorf("GlobalScore(%d, %d, %d, %d) = %d, want %d",
					tt.level, tt.grit, tt.currentXP, tt.rep, got, tt.want)
			}
		})
	}
}

func TestGlobalScore_Monotonic(t *testing.T) {
	base := [4]int{5, 60, 200, 40}
	score := func(v [4]int) int { return GlobalScore(v[0], v[1], v[2], v[3]) }

	for arg := 0; arg < 4; arg++ {
		prev := -1
		v := base
		for x := 0; x <= 120; x += 10 {
			v[arg] = x
			got := score(v)
			if got < prev {
				t.Errorf("arg %d: score decreased from %d to %d at value %d", arg, prev, got, x)
			}
			prev = got
		}
	}
}

func TestLeaderboard(t *testing.T) {
	entries := []Entry{
		{UserID: "a", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},  // 10
		{UserID: "b", Level: 5, Grit: 100, CurrentXP: 100, Reputation: 2}, // 1000
		{UserID: "c", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},  // 10, ties with a
	}

	got := Leaderboard(entries)

	if got[0].UserID != "b" {
		t.Errorf("top entry = %q, want b", got[0].UserID)
	}
	// Stable sort: a keeps its place ahead of the tied c.
	if got[1].UserID != "a" || got[2].UserID != "c" {
		t.Errorf("tie order = [%q %q], want [a c]", got[1].UserID, got[2].UserID)
	}
	if got[0].GlobalScore != 1000 {
		t.Errorf("top score = %d, want 1000", got[0].GlobalScore)
	}
}

func TestTop_CutsAfterScoring(t *testing.T) {
	// The highest scorer arrives last; the limit must not drop them.
	entries := []Entry{
		{UserID: "a", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},  // 10
		{UserID: "b", Level: 2, Grit: 100, CurrentXP: 50, Reputation: 1},  // 100
		{UserID: "c", Level: 9, Grit: 100, CurrentXP: 900, Reputation: 3}, // 24300
	}

	got := Top(entries, 1)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].UserID != "c" {
		t.Errorf("top entry = %q, want c", got[0].UserID)
	}
}

func TestTop_LimitBeyondLength(t *testing.T) {
	entries := []Entry{
		{UserID: "a", Level: 1, Grit: 100, CurrentXP: 10, Reputation: 1},
	}
	if got := Top(entries, 50); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}
