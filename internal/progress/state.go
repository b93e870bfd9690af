// Package progress implements the progress-scoring engine: XP, levels, coins,
// streaks, quests, badges and reward redemption derived from a user's
// transaction history.
//
// Everything except RedeemReward and RecordCheckIn is a pure function over the
// current state. XP and coins are re-derived from scratch on every evaluation
// instead of being kept as incremental counters, so stored totals can never
// drift from the underlying data.
package progress

import (
	"errors"
	"time"

	"finora/internal/core"
)

const (
	GoalSave       GoalType = "save"
	GoalSpendBelow GoalType = "spend_below"
)

type (
	// GoalType selects how a monthly goal is evaluated: "save" requires the
	// month balance to reach the amount, "spend_below" caps month expenses.
	GoalType string

	Goal struct {
		Type   GoalType
		Amount core.Money
	}

	// State is the per-user gamification record. XP and Coins are the persisted
	// snapshot of the last derivation; BonusXP/BonusCoins accumulate fixed
	// check-in grants and SpentCoins accumulates redemptions, so the snapshot
	// can always be rebuilt as derived + bonus - spent.
	State struct {
		OwnerID          int64
		XP               int
		Coins            int
		BonusXP          int
		BonusCoins       int
		SpentCoins       int
		CheckInStreak    int
		LastCheckIn      time.Time // zero when the user has never checked in
		QuestsCompleted  map[string]bool
		RedeemedRewards  map[string]bool
		QuizScore        int
		Goals            map[core.Month]Goal
		EmergencyTarget  core.Money
	}
)

var (
	ErrAlreadyRedeemed   = errors.New("reward already redeemed")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrUnknownReward     = errors.New("unknown reward")
)

// NewState returns the zero-value progress record created at first login.
func NewState(ownerID int64) *State {
	return &State{
		OwnerID:         ownerID,
		QuestsCompleted: make(map[string]bool),
		RedeemedRewards: make(map[string]bool),
		Goals:           make(map[core.Month]Goal),
	}
}

// GoalFor returns the goal configured for the given month, if any.
func (s *State) GoalFor(m core.Month) (Goal, bool) {
	g, ok := s.Goals[m]
	return g, ok
}

func (g Goal) Validate() error {
	switch g.Type {
	case GoalSave, GoalSpendBelow:
	default:
		return errors.New("invalid goal type")
	}
	return g.Amount.Validate()
}
