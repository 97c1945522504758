package export

import (
	"khata/internal/core"
)

const dateLayout = "02-01-2006"

// Rows flattens a built ledger into a table: a header, one row per entry,
// then the summary block (and the per-member breakdown for pairs).
func Rows(entries []core.LedgerEntry, summary core.LedgerSummary, entityName string) [][]string {
	rows := [][]string{
		{"Ledger", entityName},
		{"Date", "Type", "Description", "Member", "Amount", "Running Balance"},
	}
	for _, e := range entries {
		rows = append(rows, []string{
			e.Date.Format(dateLayout),
			string(e.Kind),
			e.Description,
			e.Member,
			e.Amount.String(),
			e.Running.String(),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"Opening Balance", summary.Opening.String()},
		[]string{"Total Credits", summary.Credits.String()},
		[]string{"Total Debits", summary.Debits.String()},
		[]string{"Closing Balance", summary.Closing.String()},
	)
	for _, m := range summary.Members {
		rows = append(rows, []string{
			"Member " + m.Name,
			"opening " + m.Opening.String(),
			"credits " + m.Credits.String(),
			"debits " + m.Debits.String(),
		})
	}
	return rows
}

// WageRow is the single-entry row shape appended by the export worker.
func WageRow(e core.WageEntry, workerName string) []string {
	return []string{
		e.CreatedAt.Format(dateLayout),
		workerName,
		string(e.Category),
		e.Description,
		e.Amount.String(),
	}
}
