package storage

import (
	"context"
	"fmt"
	"time"

	"finora/internal/core"
)

const dateLayout = "2006-01-02"

// AppendTransaction stores a ledger entry and returns it with its assigned ID.
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, kind, amount_cents, category, entry_date)
		VALUES (?, ?, ?, ?, ?)`,
		tx.OwnerID, string(tx.Kind), tx.Amount.Cents, tx.Category, tx.Date.Format(dateLayout),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	tx.ID = id
	return tx, nil
}

// ListTransactions returns every entry owned by ownerID, oldest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, category, entry_date
		FROM transactions
		WHERE owner_id = ?
		ORDER BY entry_date ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetUnmirroredTransactions returns entries not yet appended to the external
// mirror, skipping entries that previously failed to mirror.
func (r *SQLiteRepository) GetUnmirroredTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, category, entry_date
		FROM transactions
		WHERE mirrored = 0 AND mirror_error = 0
		ORDER BY id ASC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unmirrored transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// MarkMirrored flags an entry as written to the mirror.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE transactions SET mirrored = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}
	return nil
}

// MarkMirrorError flags an entry so the reconciler stops retrying it.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE transactions SET mirror_error = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark mirror error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows rowScanner) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var (
			tx      core.Transaction
			kind    string
			rawDate string
		)
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &kind, &tx.Amount.Cents, &tx.Category, &rawDate); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)

		date, err := time.Parse(dateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("parse entry date %q: %w", rawDate, err)
		}
		tx.Date = date
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
