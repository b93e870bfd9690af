package progress

import "time"

// Fixed grant for a successful daily check-in.
const (
	checkInBonusXP    = 5
	checkInBonusCoins = 2
)

// RecordCheckIn applies a daily check-in to the progress state and returns the
// resulting streak. Calling it again on the same calendar day is a no-op. A gap
// of exactly one day extends the streak; any longer gap resets it to 1. Each
// state transition accrues a fixed XP/coin grant into the bonus counters.
func RecordCheckIn(st *State, today time.Time) int {
	day := dateOnly(today)

	if !st.LastCheckIn.IsZero() && dateOnly(st.LastCheckIn).Equal(day) {
		return st.CheckInStreak
	}

	switch {
	case st.LastCheckIn.IsZero():
		st.CheckInStreak = 1
	case dateOnly(st.LastCheckIn).AddDate(0, 0, 1).Equal(day):
		st.CheckInStreak++
	default:
		st.CheckInStreak = 1
	}

	st.LastCheckIn = day
	st.BonusXP += checkInBonusXP
	st.BonusCoins += checkInBonusCoins
	return st.CheckInStreak
}

// CheckedInToday reports whether the user already checked in on the given day.
func (s *State) CheckedInToday(today time.Time) bool {
	return !s.LastCheckIn.IsZero() && dateOnly(s.LastCheckIn).Equal(dateOnly(today))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
