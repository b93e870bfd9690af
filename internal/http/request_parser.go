package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
)

// parseEntryForm builds a ledger entry from the add-entry form. The date
// defaults to today when the field is empty.
func parseEntryForm(r *http.Request, ownerID int64, now time.Time) (core.Transaction, error) {
	kind := core.Kind(strings.TrimSpace(r.Form.Get("kind")))
	category := sanitizeInput(r.Form.Get("category"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))

	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return core.Transaction{}, err
	}

	date := now
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		date, err = time.Parse("2006-01-02", v)
		if err != nil {
			return core.Transaction{}, core.ErrInvalidDate
		}
	}

	tx := core.Transaction{
		OwnerID:  ownerID,
		Kind:     kind,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// parseGoalForm reads the monthly goal form. The month defaults to the
// current month when the field is empty.
func parseGoalForm(r *http.Request, now time.Time) (core.Month, progress.Goal, error) {
	month := core.MonthOf(now)
	if v := strings.TrimSpace(r.Form.Get("month")); v != "" {
		var err error
		month, err = core.ParseMonth(v)
		if err != nil {
			return core.Month{}, progress.Goal{}, err
		}
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		return core.Month{}, progress.Goal{}, err
	}

	goal := progress.Goal{
		Type:   progress.GoalType(strings.TrimSpace(r.Form.Get("type"))),
		Amount: core.Money{Cents: cents},
	}
	if err := goal.Validate(); err != nil {
		return core.Month{}, progress.Goal{}, err
	}
	return month, goal, nil
}

// parseQuizAnswers reads the selected option index per question. Missing or
// malformed answers become -1, which never matches a correct option.
func parseQuizAnswers(r *http.Request) []int {
	answers := make([]int, len(progress.QuizQuestions))
	for i := range answers {
		answers[i] = -1
		v := strings.TrimSpace(r.Form.Get("q" + strconv.Itoa(i)))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			answers[i] = n
		}
	}
	return answers
}
