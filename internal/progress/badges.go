package progress

import (
	"time"

	"finora/internal/core"
)

// Badge is a derived achievement. Badges are recomputed on every render and
// never persisted: the display is stateless, unlike quests and rewards which
// track one-time grants.
type Badge struct {
	Name        string
	Description string
}

// EvaluateBadges returns the badges the user currently qualifies for.
func EvaluateBadges(transactions []core.Transaction, st *State, today time.Time) []Badge {
	var badges []Badge
	streaks := ComputeStreaks(transactions)

	if len(transactions) > 0 {
		badges = append(badges, Badge{"First Step", "Logged your first entry"})
	}
	if streaks.LoggingDays >= 7 {
		badges = append(badges, Badge{"Week Warrior", "Entries on 7 different days"})
	}
	if streaks.LoggingDays >= 30 {
		badges = append(badges, Badge{"Habit Master", "Entries on 30 different days"})
	}
	if streaks.SavingsStreakMonths >= 2 {
		badges = append(badges, Badge{"Steady Saver", "Positive balance 2 months running"})
	}
	if st.CheckInStreak >= 7 {
		badges = append(badges, Badge{"Daily Devotee", "Checked in 7 days in a row"})
	}
	if st.QuizScore >= 4 {
		badges = append(badges, Badge{"Money Scholar", "Aced the finance quiz"})
	}
	if FundPercent(transactions, st.EmergencyTarget) >= 100 {
		badges = append(badges, Badge{"Safety Net", "Emergency fund fully funded"})
	}
	return badges
}
