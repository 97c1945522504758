package core

import (
	"sort"
	"time"
)

const (
	EntryOpening EntryKind = "opening"
	EntryCredit  EntryKind = "credit"
	EntryDebit   EntryKind = "debit"
)

type (
	EntryKind string

	// LedgerEntry is one normalized line of a reconstructed ledger. It is
	// derived, never persisted. Amount is signed: credits positive, debits
	// negative, so the running balance is a plain left fold.
	LedgerEntry struct {
		Date        time.Time
		Kind        EntryKind
		Description string
		Amount      Money
		Running     Money
		Member      string
		MemberID    string
		Category    WageCategory
		SourceID    string
	}

	// MemberBreakdown is one pair member's slice of a pair ledger.
	// Shared debits carry no per-member allocation in the source data; they
	// are reported as an even split, odd paisa to member A.
	MemberBreakdown struct {
		LabourID string
		Name     string
		Opening  Money
		Credits  Money
		Debits   Money
	}

	LedgerSummary struct {
		Opening Money
		Credits Money
		Debits  Money
		Closing Money
		Members []MemberBreakdown
	}

	// LedgerFilter restricts which credit/debit lines enter the ledger.
	// Zero values mean "no restriction". The opening line is never filtered;
	// it always seeds the running balance.
	LedgerFilter struct {
		From     time.Time
		To       time.Time
		Category WageCategory
		Kind     EntryKind
	}
)

func (f LedgerFilter) matches(e LedgerEntry) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	return true
}

// BuildLedger turns unordered credit/debit lines into the ordered,
// balance-annotated ledger plus its summary. It is a pure function of its
// inputs: filtering happens before the fold, so filtered-out lines never
// touch the running balance; the sort is stable so same-day lines keep
// source order.
func BuildLedger(opening Money, openedAt time.Time, lines []LedgerEntry, filter LedgerFilter) ([]LedgerEntry, LedgerSummary) {
	kept := make([]LedgerEntry, 0, len(lines))
	for _, l := range lines {
		if filter.matches(l) {
			kept = append(kept, l)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Date.Before(kept[j].Date)
	})

	entries := make([]LedgerEntry, 0, len(kept)+1)
	entries = append(entries, LedgerEntry{
		Date:        openedAt,
		Kind:        EntryOpening,
		Description: "Opening balance",
		Amount:      opening,
		Running:     opening,
	})

	running := opening
	var credits, debits Money
	for _, l := range kept {
		running = running.Add(l.Amount)
		l.Running = running
		entries = append(entries, l)
		switch l.Kind {
		case EntryCredit:
			credits = credits.Add(l.Amount)
		case EntryDebit:
			debits = debits.Add(l.Amount.Neg())
		}
	}

	summary := LedgerSummary{
		Opening: opening,
		Credits: credits,
		Debits:  debits,
		Closing: opening.Add(credits).Sub(debits),
	}
	return entries, summary
}

// MemberBreakdowns computes the per-member view of a pair ledger over the
// already-filtered entries: each member's own opening and own credits, with
// the shared debit total split evenly.
func MemberBreakdowns(members [2]Labour, entries []LedgerEntry, summary LedgerSummary) []MemberBreakdown {
	debitA, debitB := SplitHalf(summary.Debits)
	out := []MemberBreakdown{
		{LabourID: members[0].ID, Name: members[0].Name, Opening: members[0].OpeningBalance, Debits: debitA},
		{LabourID: members[1].ID, Name: members[1].Name, Opening: members[1].OpeningBalance, Debits: debitB},
	}
	for _, e := range entries {
		if e.Kind != EntryCredit {
			continue
		}
		for i := range out {
			if out[i].LabourID == e.MemberID {
				out[i].Credits = out[i].Credits.Add(e.Amount)
			}
		}
	}
	return out
}
