// Package export turns built ledgers and wage postings into flat tabular
// rows and writes them to a spreadsheet backend. Pure formatting; none of
// the ledger arithmetic lives here.
package export

import (
	"context"

	"khata/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// WageRowWriter appends one row per posted wage entry.
	WageRowWriter interface {
		AppendWageRow(ctx context.Context, e core.WageEntry, workerName string) (rowRef string, err error)
	}

	// LedgerWriter writes a full ledger snapshot for one entity.
	LedgerWriter interface {
		WriteLedger(ctx context.Context, entityName string, rows [][]string) error
	}
)
