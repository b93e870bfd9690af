package progress

import (
	"sort"
	"time"

	"finora/internal/core"
)

// XP weights and fixed bonuses. Bonuses for tiered thresholds are additive:
// a user with 30 logging days holds both the 7-day and the 30-day bonus.
const (
	xpPerIncomeEntry  = 5
	xpPerExpenseEntry = 3
	xpMonthlyGoalMet  = 50
	xpLoggingDays7    = 20
	xpLoggingDays30   = 50
	xpSavingsStreak2  = 30
	xpCheckInStreak3  = 10
	xpCheckInStreak7  = 20
	xpFundHalf        = 30
	xpFundFull        = 50
	xpPerQuizPoint    = 5

	xpPerLevel = 100
)

// Streaks bundles the two streak metrics derived from the entry log.
type Streaks struct {
	// LoggingDays counts distinct calendar dates with at least one entry.
	LoggingDays int
	// SavingsStreakMonths counts consecutive months with a positive balance,
	// walking backward from the most recent month that has any data.
	SavingsStreakMonths int
}

// Level is the banding of an XP total into 100-XP levels.
type Level struct {
	Level   int
	IntoXP  int
	ToNext  int
}

// MonthlySummary sums amounts by kind over entries in the given month.
// An empty input yields (0, 0).
func MonthlySummary(transactions []core.Transaction, month core.Month) (incomeCents, expenseCents int64) {
	for _, t := range transactions {
		if !month.Contains(t.Date) {
			continue
		}
		switch t.Kind {
		case core.Income:
			incomeCents += t.Amount.Cents
		case core.Expense:
			expenseCents += t.Amount.Cents
		}
	}
	return incomeCents, expenseCents
}

// CumulativeBalance is total income minus total expenses across all entries.
func CumulativeBalance(transactions []core.Transaction) int64 {
	var balance int64
	for _, t := range transactions {
		switch t.Kind {
		case core.Income:
			balance += t.Amount.Cents
		case core.Expense:
			balance -= t.Amount.Cents
		}
	}
	return balance
}

// ComputeStreaks derives the logging-day count and the savings streak from the
// entry log.
func ComputeStreaks(transactions []core.Transaction) Streaks {
	days := make(map[string]bool)
	months := make(map[core.Month]bool)
	for _, t := range transactions {
		days[t.Date.Format("2006-01-02")] = true
		months[core.MonthOf(t.Date)] = true
	}

	s := Streaks{LoggingDays: len(days)}
	if len(months) == 0 {
		return s
	}

	// Walk backward from the most recent month with data; stop at the first
	// month whose balance is not positive.
	latest := core.Month{}
	for m := range months {
		if latest.Before(m) {
			latest = m
		}
	}
	for m := latest; months[m]; m = m.Prev() {
		income, expense := MonthlySummary(transactions, m)
		if income-expense <= 0 {
			break
		}
		s.SavingsStreakMonths++
	}
	return s
}

// ComputeXP re-derives the user's XP from the entry log and progress state.
// It is deterministic and side-effect free; the caller persists the result.
// Check-in grants accrued in State.BonusXP are not included here; the service
// adds them when it snapshots the total.
func ComputeXP(transactions []core.Transaction, st *State, today time.Time) int {
	xp := 0
	for _, t := range transactions {
		switch t.Kind {
		case core.Income:
			xp += xpPerIncomeEntry
		case core.Expense:
			xp += xpPerExpenseEntry
		}
	}

	month := core.MonthOf(today)
	if goal, ok := st.GoalFor(month); ok && goalMet(transactions, month, goal) {
		xp += xpMonthlyGoalMet
	}

	streaks := ComputeStreaks(transactions)
	if streaks.LoggingDays >= 7 {
		xp += xpLoggingDays7
	}
	if streaks.LoggingDays >= 30 {
		xp += xpLoggingDays30
	}
	if streaks.SavingsStreakMonths >= 2 {
		xp += xpSavingsStreak2
	}

	if st.CheckInStreak >= 3 {
		xp += xpCheckInStreak3
	}
	if st.CheckInStreak >= 7 {
		xp += xpCheckInStreak7
	}

	switch pct := FundPercent(transactions, st.EmergencyTarget); {
	case pct >= 100:
		xp += xpFundHalf + xpFundFull
	case pct >= 50:
		xp += xpFundHalf
	}

	for name := range st.QuestsCompleted {
		if q, ok := QuestByName(name); ok {
			xp += q.XP
		}
	}

	xp += st.QuizScore * xpPerQuizPoint
	return xp
}

// goalMet evaluates a monthly goal against that month's totals.
func goalMet(transactions []core.Transaction, month core.Month, goal Goal) bool {
	income, expense := MonthlySummary(transactions, month)
	switch goal.Type {
	case GoalSave:
		return income-expense >= goal.Amount.Cents
	case GoalSpendBelow:
		return expense > 0 && expense <= goal.Amount.Cents
	default:
		return false
	}
}

// FundPercent returns how much of the emergency-fund target the cumulative
// balance covers, as a whole percentage. A zero or unset target yields 0.
func FundPercent(transactions []core.Transaction, target core.Money) int {
	if target.Cents <= 0 {
		return 0
	}
	balance := CumulativeBalance(transactions)
	if balance <= 0 {
		return 0
	}
	return int(balance * 100 / target.Cents)
}

// LevelFromXP bands an XP total into levels of 100 XP each.
func LevelFromXP(xp int) Level {
	if xp < 0 {
		xp = 0
	}
	into := xp % xpPerLevel
	return Level{
		Level:  xp/xpPerLevel + 1,
		IntoXP: into,
		ToNext: xpPerLevel - into,
	}
}

// ComputeCoins derives earned coins from XP plus fixed quest coin rewards.
// Check-in grants and spent coins are applied by the service on top.
func ComputeCoins(xp int, questsCompleted map[string]bool) int {
	coins := xp / 10
	for name := range questsCompleted {
		if q, ok := QuestByName(name); ok {
			coins += q.Coins
		}
	}
	return coins
}

// CategoryBreakdown sums expense amounts per category for the given month,
// sorted by amount descending. Derived display data for the dashboard.
func CategoryBreakdown(transactions []core.Transaction, month core.Month) []core.CategoryAmount {
	byCat := make(map[string]int64)
	for _, t := range transactions {
		if t.Kind == core.Expense && month.Contains(t.Date) {
			byCat[t.Category] += t.Amount.Cents
		}
	}
	out := make([]core.CategoryAmount, 0, len(byCat))
	for name, cents := range byCat {
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
