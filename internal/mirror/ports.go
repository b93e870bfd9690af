// Package mirror defines the outbound port for copying ledger entries to an
// external spreadsheet. The worker drives it; the web process never blocks
// on the mirror.
package mirror

import (
	"context"

	"finora/internal/core"
)

type EntryWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
