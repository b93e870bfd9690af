// Package services orchestrates storage, the progress engine and the broker
// behind the HTTP handlers.
package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/storage"
)

// csvHeader is the column layout for exports and the required layout for
// imports.
var csvHeader = []string{"date", "kind", "amount", "category"}

// EntryService handles the append-only ledger: adding entries, listing them
// and moving them through CSV in both directions.
type EntryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEntryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// AddEntry validates and stores a ledger entry, then publishes a feed event.
// A broker failure never fails the request; the entry is already saved.
func (s *EntryService) AddEntry(ctx context.Context, username string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.storage.AppendTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save entry: %w", err)
	}

	detail := fmt.Sprintf("%s %s %s", tx.Kind, core.FormatCents(tx.Amount.Cents), tx.Category)
	s.publishActivity(ctx, username, amqp.ActivityEntryAdded, detail)

	return saved, nil
}

// ListEntries returns the user's full ledger, oldest first.
func (s *EntryService) ListEntries(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, ownerID)
}

// ExportCSV writes the user's ledger to w with a fixed header row.
func (s *EntryService) ExportCSV(ctx context.Context, ownerID int64, w io.Writer) error {
	transactions, err := s.storage.ListTransactions(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, tx := range transactions {
		record := []string{
			tx.Date.Format("2006-01-02"),
			string(tx.Kind),
			core.FormatCents(tx.Amount.Cents),
			tx.Category,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV reads entries from r and appends the valid ones. The header must
// match the export layout exactly; otherwise nothing is imported and
// core.ErrImportMismatch is returned. Invalid rows are skipped and counted,
// never aborting the rest of the file.
func (s *EntryService) ImportCSV(ctx context.Context, username string, ownerID int64, r io.Reader) (imported, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, 0, core.ErrImportMismatch
	}
	if !headerMatches(header) {
		return 0, 0, core.ErrImportMismatch
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		tx, err := parseCSVRecord(record, ownerID)
		if err != nil {
			skipped++
			continue
		}

		if _, err := s.storage.AppendTransaction(ctx, tx); err != nil {
			return imported, skipped, fmt.Errorf("save imported entry: %w", err)
		}
		imported++
	}

	if imported > 0 {
		s.publishActivity(ctx, username, amqp.ActivityEntryAdded,
			fmt.Sprintf("Imported %d entries", imported))
	}
	return imported, skipped, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range csvHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), col) {
			return false
		}
	}
	return true
}

func parseCSVRecord(record []string, ownerID int64) (core.Transaction, error) {
	if len(record) != len(csvHeader) {
		return core.Transaction{}, core.ErrImportMismatch
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
	if err != nil {
		return core.Transaction{}, core.ErrInvalidDate
	}

	cents, err := core.ParseDecimalToCents(record[2])
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		OwnerID:  ownerID,
		Kind:     core.Kind(strings.TrimSpace(record[1])),
		Amount:   core.Money{Cents: cents},
		Category: strings.TrimSpace(record[3]),
		Date:     date,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *EntryService) publishActivity(ctx context.Context, username, kind, detail string) {
	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewActivityMessage(username, kind, detail)
	if err := s.amqpClient.PublishActivity(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"kind", kind, "error", err)
	}
}
