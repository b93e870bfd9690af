package progress

import (
	"strings"
	"time"

	"finora/internal/core"
)

// Quest is a one-time-per-user objective with a fixed XP/coin reward. The
// predicate is evaluated over the full entry history plus the current date.
type Quest struct {
	Name        string
	Description string
	XP          int
	Coins       int
	satisfied   func(transactions []core.Transaction, today time.Time) bool
}

// Quest thresholds.
const (
	questWeekExpenseEntries  = 5
	questLoggingDays         = 10
	questBalanceCents        = 5000_00
	questDistinctCategories  = 5
	questDebtPaymentsCents   = 1000_00
)

// Quests is the fixed catalog, in display order.
var Quests = []Quest{
	{
		Name:        "Budget Apprentice",
		Description: "Log 5 expenses within a single week",
		XP:          25,
		Coins:       10,
		satisfied: func(ts []core.Transaction, today time.Time) bool {
			year, week := today.ISOWeek()
			n := 0
			for _, t := range ts {
				if t.Kind != core.Expense {
					continue
				}
				y, w := t.Date.ISOWeek()
				if y == year && w == week {
					n++
				}
			}
			return n >= questWeekExpenseEntries
		},
	},
	{
		Name:        "Consistent Logger",
		Description: "Record entries on 10 different days",
		XP:          40,
		Coins:       15,
		satisfied: func(ts []core.Transaction, _ time.Time) bool {
			return ComputeStreaks(ts).LoggingDays >= questLoggingDays
		},
	},
	{
		Name:        "Surplus Builder",
		Description: "Grow your overall balance past 5000",
		XP:          60,
		Coins:       25,
		satisfied: func(ts []core.Transaction, _ time.Time) bool {
			return CumulativeBalance(ts) >= questBalanceCents
		},
	},
	{
		Name:        "Category Explorer",
		Description: "Spend across 5 different categories",
		XP:          30,
		Coins:       10,
		satisfied: func(ts []core.Transaction, _ time.Time) bool {
			cats := make(map[string]bool)
			for _, t := range ts {
				if t.Kind == core.Expense {
					cats[strings.ToLower(strings.TrimSpace(t.Category))] = true
				}
			}
			return len(cats) >= questDistinctCategories
		},
	},
	{
		Name:        "Debt Crusher",
		Description: "Pay down 1000 in the Debt category",
		XP:          50,
		Coins:       20,
		satisfied: func(ts []core.Transaction, _ time.Time) bool {
			var paid int64
			for _, t := range ts {
				if t.Kind == core.Expense && strings.EqualFold(strings.TrimSpace(t.Category), "Debt") {
					paid += t.Amount.Cents
				}
			}
			return paid >= questDebtPaymentsCents
		},
	},
}

// QuestByName looks up a quest in the catalog.
func QuestByName(name string) (Quest, bool) {
	for _, q := range Quests {
		if q.Name == name {
			return q, true
		}
	}
	return Quest{}, false
}

// EvaluateQuests returns the quests whose predicates are newly satisfied, i.e.
// not already present in st.QuestsCompleted. It does not mutate st: the caller
// records completions (and thereby their one-time rewards) explicitly.
func EvaluateQuests(transactions []core.Transaction, st *State, today time.Time) []Quest {
	var completed []Quest
	for _, q := range Quests {
		if st.QuestsCompleted[q.Name] {
			continue
		}
		if q.satisfied(transactions, today) {
			completed = append(completed, q)
		}
	}
	return completed
}
