package http

import (
	"log/slog"
	"net/http"
	"time"

	"finora/internal/core"
	"finora/internal/services"
	"finora/internal/storage"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	view, cached := s.dashCache.Get(user.Username)
	if !cached {
		var err error
		view, err = s.dashboard.View(r.Context(), user, time.Now())
		if err != nil {
			slog.ErrorContext(r.Context(), "Dashboard build failed", "error", err)
			http.Error(w, "could not load dashboard", http.StatusInternalServerError)
			return
		}
		s.dashCache.Set(user.Username, view)
	}

	s.render(w, r, "dashboard.html", map[string]any{
		"Username":   user.Username,
		"Current":    monthData(view.Current),
		"Previous":   monthData(view.Previous),
		"Series":     seriesData(view.MonthlySeries),
		"Balance":    core.FormatCents(view.Balance.Cents),
		"Suggestion": suggestionData(view.Suggestion),
		"Activity":   activityData(view.Activity),
		"GoalSet":    view.GoalSet,
		"GoalMet":    view.GoalMet,
	})
}

type monthView struct {
	Label      string
	Income     string
	Expense    string
	Balance    string
	ByCategory []categoryView
}

type categoryView struct {
	Name   string
	Amount string
	Width  int
}

func monthData(o core.MonthOverview) monthView {
	mv := monthView{
		Label:   o.Month.String(),
		Income:  core.FormatCents(o.Income.Cents),
		Expense: core.FormatCents(o.Expense.Cents),
		Balance: core.FormatCents(o.Balance().Cents),
	}

	var maxCents int64
	for _, c := range o.ByCategory {
		if c.Amount.Cents > maxCents {
			maxCents = c.Amount.Cents
		}
	}
	for _, c := range o.ByCategory {
		width := 0
		if maxCents > 0 && c.Amount.Cents > 0 {
			width = int((c.Amount.Cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		mv.ByCategory = append(mv.ByCategory, categoryView{
			Name:   c.Name,
			Amount: core.FormatCents(c.Amount.Cents),
			Width:  width,
		})
	}
	return mv
}

type seriesRow struct {
	Label   string
	Income  string
	Expense string
	Balance string
}

func seriesData(series []core.MonthOverview) []seriesRow {
	out := make([]seriesRow, 0, len(series))
	for _, o := range series {
		out = append(out, seriesRow{
			Label:   o.Month.String(),
			Income:  core.FormatCents(o.Income.Cents),
			Expense: core.FormatCents(o.Expense.Cents),
			Balance: core.FormatCents(o.Balance().Cents),
		})
	}
	return out
}

type suggestionView struct {
	Needs  string
	Wants  string
	Invest string
}

func suggestionData(sg *services.InvestmentSuggestion) *suggestionView {
	if sg == nil {
		return nil
	}
	return &suggestionView{
		Needs:  core.FormatCents(sg.Needs.Cents),
		Wants:  core.FormatCents(sg.Wants.Cents),
		Invest: core.FormatCents(sg.Invest.Cents),
	}
}

type activityView struct {
	When   string
	Kind   string
	Detail string
}

func activityData(entries []storage.ActivityEntry) []activityView {
	out := make([]activityView, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityView{
			When:   e.OccurredAt.Format("Jan 2 15:04"),
			Kind:   e.Kind,
			Detail: e.Detail,
		})
	}
	return out
}
