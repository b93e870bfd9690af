package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finora/internal/core"
)

const maxImportSize = 2 << 20 // 2 MiB upload cap

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.renderEntries(w, r, http.StatusOK, user.ID, user.Username, "", "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		tx, err := parseEntryForm(r, user.ID, time.Now())
		if err != nil {
			s.renderEntries(w, r, http.StatusUnprocessableEntity, user.ID, user.Username, "", err.Error())
			return
		}

		if _, err := s.entries.AddEntry(r.Context(), user.Username, tx); err != nil {
			slog.ErrorContext(r.Context(), "Entry save failed", "error", err)
			http.Error(w, "could not save entry", http.StatusInternalServerError)
			return
		}
		s.dashCache.Delete(user.Username)

		notice := fmt.Sprintf("%s of %s recorded under %s",
			tx.Kind, core.FormatCents(tx.Amount.Cents), tx.Category)
		s.renderEntries(w, r, http.StatusOK, user.ID, user.Username, notice, "")
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) renderEntries(w http.ResponseWriter, r *http.Request, status int, ownerID int64, username, notice, errMsg string) {
	transactions, err := s.entries.ListEntries(r.Context(), ownerID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Entry list failed", "error", err)
		http.Error(w, "could not load entries", http.StatusInternalServerError)
		return
	}

	type row struct {
		Date     string
		Kind     string
		Amount   string
		Category string
	}
	rows := make([]row, 0, len(transactions))
	// Newest first for display.
	for i := len(transactions) - 1; i >= 0; i-- {
		t := transactions[i]
		rows = append(rows, row{
			Date:     t.Date.Format("2006-01-02"),
			Kind:     string(t.Kind),
			Amount:   core.FormatCents(t.Amount.Cents),
			Category: t.Category,
		})
	}

	s.renderStatus(w, r, status, "entries.html", map[string]any{
		"Username": username,
		"Entries":  rows,
		"Today":    time.Now().Format("2006-01-02"),
		"Notice":   notice,
		"Error":    errMsg,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="entries.csv"`)
	if err := s.entries.ExportCSV(r.Context(), user.ID, w); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		s.renderEntries(w, r, http.StatusBadRequest, user.ID, user.Username, "", "No file selected")
		return
	}
	defer file.Close()

	imported, skipped, err := s.entries.ImportCSV(r.Context(), user.Username, user.ID, file)
	if err != nil {
		s.renderEntries(w, r, http.StatusUnprocessableEntity, user.ID, user.Username, "", "Import failed: "+err.Error())
		return
	}
	s.dashCache.Delete(user.Username)

	notice := fmt.Sprintf("Imported %d entries", imported)
	if skipped > 0 {
		notice = fmt.Sprintf("Imported %d entries, skipped %d invalid rows", imported, skipped)
	}
	s.renderEntries(w, r, http.StatusOK, user.ID, user.Username, notice, "")
}
