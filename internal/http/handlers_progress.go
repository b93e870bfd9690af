package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
)

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	_, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	s.renderProgress(w, r, http.StatusOK, "", "")
}

func (s *Server) renderProgress(w http.ResponseWriter, r *http.Request, status int, notice, errMsg string) {
	user, _ := userFrom(r.Context())

	view, err := s.progress.View(r.Context(), user, time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Progress build failed", "error", err)
		http.Error(w, "could not load progress", http.StatusInternalServerError)
		return
	}

	s.renderStatus(w, r, status, "progress.html", map[string]any{
		"Username":       user.Username,
		"View":           view,
		"FundTarget":     core.FormatCents(view.FundTarget.Cents),
		"FundTargetSet":  view.FundTarget.Cents > 0,
		"CurrentMonth":   core.MonthOf(time.Now()).String(),
		"Notice":         notice,
		"Error":          errMsg,
	})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if _, err := s.progress.CheckIn(r.Context(), user, time.Now()); err != nil {
		slog.ErrorContext(r.Context(), "Check-in failed", "error", err)
		http.Error(w, "check-in failed", http.StatusInternalServerError)
		return
	}
	s.dashCache.Delete(user.Username)
	http.Redirect(w, r, "/progress", http.StatusSeeOther)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.Form.Get("reward"))
	reward, err := s.progress.Redeem(r.Context(), user, name, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrUnknownReward):
			s.renderProgress(w, r, http.StatusNotFound, "", "That reward does not exist")
		case errors.Is(err, progress.ErrAlreadyRedeemed):
			s.renderProgress(w, r, http.StatusConflict, "", "You already own this reward")
		case errors.Is(err, progress.ErrInsufficientCoins):
			s.renderProgress(w, r, http.StatusUnprocessableEntity, "", "Not enough coins for this reward")
		default:
			slog.ErrorContext(r.Context(), "Redemption failed", "error", err)
			http.Error(w, "redemption failed", http.StatusInternalServerError)
		}
		return
	}

	s.dashCache.Delete(user.Username)
	s.renderProgress(w, r, http.StatusOK, "Redeemed "+reward.Name, "")
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	month, goal, err := parseGoalForm(r, time.Now())
	if err != nil {
		s.renderProgress(w, r, http.StatusUnprocessableEntity, "", "Invalid goal: "+err.Error())
		return
	}

	if err := s.progress.SetGoal(r.Context(), user, month, goal); err != nil {
		slog.ErrorContext(r.Context(), "Goal save failed", "error", err)
		http.Error(w, "could not save goal", http.StatusInternalServerError)
		return
	}
	s.dashCache.Delete(user.Username)
	s.renderProgress(w, r, http.StatusOK, "Goal saved for "+month.String(), "")
}

func (s *Server) handleSetFund(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("target")))
	if err != nil {
		s.renderProgress(w, r, http.StatusUnprocessableEntity, "", "Invalid target amount")
		return
	}

	if err := s.progress.SetEmergencyTarget(r.Context(), user, core.Money{Cents: cents}); err != nil {
		slog.ErrorContext(r.Context(), "Fund target save failed", "error", err)
		http.Error(w, "could not save target", http.StatusInternalServerError)
		return
	}
	s.renderProgress(w, r, http.StatusOK, "Emergency fund target updated", "")
}

// Static education content shown alongside the quiz. The news list is a
// placeholder until a live feed is wired in.
var (
	educationTips = []string{
		"Track your expenses daily to avoid overspending",
		"Avoid high-interest debt like credit cards",
		"Automate savings each month",
		"Start investing early in mutual funds or ETFs",
		"Learn about SIPs, budgeting, and financial goals",
	}

	financialNews = []string{
		"Sensex climbs 300 pts; Nifty above 23,500 ahead of Fed decision",
		"Gold prices drop as dollar strengthens on Fed signals",
		"Mutual Fund SIPs hit record 18,000 crore in June 2025",
		"RBI hints at rate cut if inflation remains within target",
	}
)

func (s *Server) handleEducation(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	s.render(w, r, "education.html", map[string]any{
		"Username":  user.Username,
		"Questions": progress.QuizQuestions,
		"Tips":      educationTips,
		"News":      financialNews,
	})
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	score, err := s.progress.SubmitQuiz(r.Context(), user, parseQuizAnswers(r), time.Now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Quiz submission failed", "error", err)
		http.Error(w, "quiz submission failed", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "education.html", map[string]any{
		"Username":  user.Username,
		"Questions": progress.QuizQuestions,
		"Tips":      educationTips,
		"News":      financialNews,
		"Score":     score,
		"Total":     len(progress.QuizQuestions),
		"Submitted": true,
	})
}
