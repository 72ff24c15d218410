package ledger

import (
	"fmt"
	"math"
)

// XPPerLevel is the amount of in-level XP that rolls a user over to the next level.
const XPPerLevel = 1000

// Action identifies an XP-earning (or XP-costing) activity kind.
type Action string

const (
	ActionTaskCompleted      Action = "task_completed"
	ActionSessionAttended    Action = "session_attended"
	ActionSessionMissed      Action = "session_missed"
	ActionPitStopCompleted   Action = "pitstop_completed"
	ActionPitStopLate        Action = "pitstop_late"
	ActionPitStopMissed      Action = "pitstop_missed"
	ActionKpiGreen           Action = "kpi_green"
	ActionKpiRed             Action = "kpi_red"
	ActionOkrGreen           Action = "okr_green"
	ActionOkrRed             Action = "okr_red"
	ActionQuarterAchievedKpi Action = "quarter_achieved_kpi"
	ActionQuarterAchievedOkr Action = "quarter_achieved_okr"
	ActionReferralOpened     Action = "referral_opened"
	ActionFeedbackGiven      Action = "feedback_given"
)

// PointsTable maps action kinds to signed point values. Tables are built once
// at startup and passed into Apply; they are never mutated afterwards.
type PointsTable map[Action]int

// DefaultPointsTable returns the production point values.
func DefaultPointsTable() PointsTable {
	return PointsTable{
		ActionTaskCompleted:      50,
		ActionSessionAttended:    100,
		ActionSessionMissed:      -100,
		ActionPitStopCompleted:   250,
		ActionPitStopLate:        100,
		ActionPitStopMissed:      -250,
		ActionKpiGreen:           25,
		ActionKpiRed:             -25,
		ActionOkrGreen:           50,
		ActionOkrRed:             -50,
		ActionQuarterAchievedKpi: 250,
		ActionQuarterAchievedOkr: 500,
		ActionReferralOpened:     100,
		ActionFeedbackGiven:      25,
	}
}

// State is a user's complete XP ledger. Grit is derived from the two
// cumulative counters and recomputed on every apply; it is cached here for
// persistence, never treated as a source of truth.
type State struct {
	CumulativePositiveXP int
	CumulativeNegativeXP int
	CurrentXP            int // XP within the current level, [0, 1000) once positives refill any deficit
	Level                int
	Grit                 int // [0, 100]
}

// NewState returns the ledger for a user who has done nothing yet.
func NewState() State {
	return State{Level: 1, Grit: 100}
}

// Apply looks up the action's point value, folds it into the state and
// returns the complete new state plus the signed amount applied.
//
// Level only ever increases: positive XP past 1000 rolls over, negative XP
// leaves the level untouched and may drive CurrentXP below zero until later
// positives refill it. An action kind missing from the table is a caller
// contract violation and is the only error case.
func Apply(s State, action Action, table PointsTable) (State, int, error) {
	amount, ok := table[action]
	if !ok {
		return s, 0, fmt.Errorf("unknown action kind %q", action)
	}

	s.CurrentXP += amount
	if s.CurrentXP >= XPPerLevel {
		s.Level += s.CurrentXP / XPPerLevel
		s.CurrentXP %= XPPerLevel
	}

	if amount >= 0 {
		s.CumulativePositiveXP += amount
	} else {
		s.CumulativeNegativeXP += -amount
	}
	s.Grit = Grit(s.CumulativePositiveXP, s.CumulativeNegativeXP)

	return s, amount, nil
}

// Grit returns the consistency percentage for the given lifetime counters:
// the share of earned XP not offset by penalties, clamped to [0, 100].
// A user with no earned XP gets full credit unless they already have penalties.
func Grit(positive, negative int) int {
	if positive <= 0 {
		if negative > 0 {
			return 0
		}
		return 100
	}
	ratio := 1.0 - float64(negative)/float64(positive)
	return clamp(int(math.Round(ratio*100)), 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
