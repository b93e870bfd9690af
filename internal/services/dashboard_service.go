package services

import (
	"context"
	"fmt"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
	"finora/internal/storage"
)

// Suggestion thresholds for the investment hint on the dashboard.
const (
	suggestionMinBalanceCents = 500_00

	needsPercent  = 50
	wantsPercent  = 30
	investPercent = 20
)

// InvestmentSuggestion is a 50/30/20 split of the current balance, shown only
// when the balance clears the minimum threshold.
type InvestmentSuggestion struct {
	Needs  core.Money
	Wants  core.Money
	Invest core.Money
}

// DashboardView is everything the landing page renders.
type DashboardView struct {
	Current       core.MonthOverview
	Previous      core.MonthOverview
	MonthlySeries []core.MonthOverview
	Balance       core.Money
	Suggestion    *InvestmentSuggestion
	Activity      []storage.ActivityEntry
	GoalSet       bool
	GoalMet       bool
}

// DashboardService assembles the monthly overview shown after login.
type DashboardService struct {
	storage *storage.SQLiteRepository
}

func NewDashboardService(storage *storage.SQLiteRepository) *DashboardService {
	return &DashboardService{storage: storage}
}

// View builds the dashboard for the month containing today, comparing it with
// the month before.
func (s *DashboardService) View(ctx context.Context, user *core.UserAccount, today time.Time) (*DashboardView, error) {
	transactions, err := s.storage.ListTransactions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	month := core.MonthOf(today)
	view := &DashboardView{
		Current:       overview(transactions, month),
		Previous:      overview(transactions, month.Prev()),
		MonthlySeries: monthlySeries(transactions),
		Balance:       core.Money{Cents: progress.CumulativeBalance(transactions)},
	}

	if view.Balance.Cents > suggestionMinBalanceCents {
		view.Suggestion = &InvestmentSuggestion{
			Needs:  core.Money{Cents: view.Balance.Cents * needsPercent / 100},
			Wants:  core.Money{Cents: view.Balance.Cents * wantsPercent / 100},
			Invest: core.Money{Cents: view.Balance.Cents * investPercent / 100},
		}
	}

	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if goal, ok := st.GoalFor(month); ok {
		view.GoalSet = true
		view.GoalMet = goalSatisfied(view.Current, goal)
	}

	activity, err := s.storage.ListRecentActivity(ctx, user.Username, 10)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	view.Activity = activity

	return view, nil
}

// monthlySeries builds one overview per month with data, oldest first.
// Entries arrive ordered by date, so months appear in ascending order.
func monthlySeries(transactions []core.Transaction) []core.MonthOverview {
	var series []core.MonthOverview
	var last core.Month
	for _, tx := range transactions {
		m := core.MonthOf(tx.Date)
		if len(series) > 0 && m == last {
			continue
		}
		series = append(series, overview(transactions, m))
		last = m
	}
	return series
}

func overview(transactions []core.Transaction, month core.Month) core.MonthOverview {
	income, expense := progress.MonthlySummary(transactions, month)
	return core.MonthOverview{
		Month:      month,
		Income:     core.Money{Cents: income},
		Expense:    core.Money{Cents: expense},
		ByCategory: progress.CategoryBreakdown(transactions, month),
	}
}

func goalSatisfied(o core.MonthOverview, goal progress.Goal) bool {
	switch goal.Type {
	case progress.GoalSave:
		return o.Balance().Cents >= goal.Amount.Cents
	case progress.GoalSpendBelow:
		return o.Expense.Cents > 0 && o.Expense.Cents <= goal.Amount.Cents
	default:
		return false
	}
}
