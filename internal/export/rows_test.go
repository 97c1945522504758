package export

import (
	"testing"
	"time"

	"khata/internal/core"
)

func TestRows(t *testing.T) {
	entries := []core.LedgerEntry{
		{
			Date:        time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			Kind:        core.EntryOpening,
			Description: "Opening balance",
			Amount:      core.Rupees(200),
			Running:     core.Rupees(200),
		},
		{
			Date:        time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
			Kind:        core.EntryCredit,
			Description: "week 12 wages",
			Amount:      core.Rupees(150),
			Running:     core.Rupees(350),
			Member:      "Ram",
		},
	}
	summary := core.LedgerSummary{
		Opening: core.Rupees(200),
		Credits: core.Rupees(150),
		Closing: core.Rupees(350),
	}

	rows := Rows(entries, summary, "Ram")

	if rows[0][1] != "Ram" {
		t.Errorf("title row = %v, want entity name in second cell", rows[0])
	}
	if rows[1][0] != "Date" || rows[1][5] != "Running Balance" {
		t.Errorf("header row = %v", rows[1])
	}
	if rows[2][0] != "01-03-2026" || rows[2][1] != "opening" {
		t.Errorf("opening row = %v", rows[2])
	}
	if rows[3][2] != "week 12 wages" || rows[3][4] != "150.00" || rows[3][5] != "350.00" {
		t.Errorf("credit row = %v", rows[3])
	}

	// Entries, blank separator, then the four summary rows.
	want := 2 + len(entries) + 1 + 4
	if len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}
	closing := rows[len(rows)-1]
	if closing[0] != "Closing Balance" || closing[1] != "350.00" {
		t.Errorf("closing row = %v", closing)
	}
}

func TestRowsWithMemberBreakdown(t *testing.T) {
	summary := core.LedgerSummary{
		Members: []core.MemberBreakdown{
			{Name: "Ram", Opening: core.Rupees(100), Credits: core.Rupees(300), Debits: core.Rupees(40)},
			{Name: "Shyam", Opening: core.Rupees(50), Credits: core.Rupees(200), Debits: core.Rupees(40)},
		},
	}

	rows := Rows(nil, summary, "Ram & Shyam")

	last := rows[len(rows)-1]
	if last[0] != "Member Shyam" {
		t.Errorf("last row = %v, want Shyam breakdown", last)
	}
	if last[2] != "credits 200.00" {
		t.Errorf("breakdown credits cell = %q", last[2])
	}
}

func TestWageRow(t *testing.T) {
	e := core.WageEntry{
		Amount:      core.Rupees(325),
		Description: "week 12 wages",
		Category:    core.CategoryProduction,
		CreatedAt:   time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC),
	}

	row := WageRow(e, "Ram Kumar")
	want := []string{"15-03-2026", "Ram Kumar", "production", "week 12 wages", "325.00"}
	if len(row) != len(want) {
		t.Fatalf("row has %d cells, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}
