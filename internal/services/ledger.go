package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"khata/internal/core"
	"khata/internal/store"
)

// Ledger reconstructs the chronological ledger of a worker or a linked pair
// from the stored event streams. Nothing is cached or persisted; every build
// is a pure function of store state.
type Ledger struct {
	store store.Store
}

func NewLedger(s store.Store) *Ledger {
	return &Ledger{store: s}
}

// LedgerResult is the ordered ledger plus its verifiable summary.
type LedgerResult struct {
	EntityName string
	Entries    []core.LedgerEntry
	Summary    core.LedgerSummary
}

// ForLabour builds the ledger of a single unlinked-or-linked worker. For a
// linked worker the individual view still exists: its own wage credits and
// its own payment allocations.
func (s *Ledger) ForLabour(ctx context.Context, labourID string, filter core.LedgerFilter) (*LedgerResult, error) {
	l, err := s.store.GetLabour(ctx, labourID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &core.NotFoundError{Kind: "labour", Ref: labourID}
		}
		return nil, &core.DatabaseError{Op: "GetLabour", Err: err}
	}

	lines, err := s.gather(ctx, core.IndividualRef(l.ID), l.Org, []core.Labour{l})
	if err != nil {
		return nil, err
	}

	entries, summary := core.BuildLedger(l.OpeningBalance, l.CreatedAt, lines, filter)
	return &LedgerResult{EntityName: l.Name, Entries: entries, Summary: summary}, nil
}

// ForPair builds the shared ledger of a linked pair: both members' wage
// credits, pair-scoped payments and pair adjustments, with a per-member
// breakdown on the summary.
func (s *Ledger) ForPair(ctx context.Context, pairID string, filter core.LedgerFilter) (*LedgerResult, error) {
	pair, err := s.store.GetPair(ctx, pairID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &core.NotFoundError{Kind: "linked pair", Ref: pairID}
		}
		return nil, &core.DatabaseError{Op: "GetPair", Err: err}
	}

	var members [2]core.Labour
	for i, id := range pair.Members() {
		m, err := s.store.GetLabour(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &core.NotFoundError{Kind: "labour", Ref: id}
			}
			return nil, &core.DatabaseError{Op: "GetLabour", Err: err}
		}
		members[i] = m
	}

	lines, err := s.gather(ctx, core.PairRef(pair), pair.Org, members[:])
	if err != nil {
		return nil, err
	}

	opening := members[0].OpeningBalance.Add(members[1].OpeningBalance)
	openedAt := members[0].CreatedAt
	if members[1].CreatedAt.Before(openedAt) {
		openedAt = members[1].CreatedAt
	}

	entries, summary := core.BuildLedger(opening, openedAt, lines, filter)
	summary.Members = core.MemberBreakdowns(members, entries, summary)
	return &LedgerResult{
		EntityName: members[0].Name + " & " + members[1].Name,
		Entries:    entries,
		Summary:    summary,
	}, nil
}

// gather pulls the three event streams concurrently and normalizes them
// into unordered signed lines. Read order does not matter: the builder
// sorts by date explicitly. A failure on any stream fails the whole build;
// nothing partial is ever returned.
func (s *Ledger) gather(ctx context.Context, ref core.EntityRef, org string, members []core.Labour) ([]core.LedgerEntry, error) {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	var (
		wages       []core.WageEntry
		payments    []core.Payment
		adjustments []core.Adjustment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wages, err = s.store.ListWageEntries(gctx, store.WageFilter{Org: org, LabourIDs: ref.MemberIDs()})
		if err != nil {
			return &core.DatabaseError{Op: "ListWageEntries", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		f := store.PaymentFilter{Org: org}
		if ref.IsPair() {
			f.PairID = ref.PairID
		} else {
			f.LabourID = ref.LabourID
		}
		var err error
		payments, err = s.store.ListPayments(gctx, f)
		if err != nil {
			return &core.DatabaseError{Op: "ListPayments", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		f := store.AdjustmentFilter{Org: org}
		if ref.IsPair() {
			f.PairID = ref.PairID
		} else {
			f.LabourIDs = []string{ref.LabourID}
		}
		var err error
		adjustments, err = s.store.ListAdjustments(gctx, f)
		if err != nil {
			return &core.DatabaseError{Op: "ListAdjustments", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]core.LedgerEntry, 0, len(wages)+len(payments)+len(adjustments))
	for _, e := range wages {
		lines = append(lines, core.LedgerEntry{
			Date:        e.CreatedAt,
			Kind:        core.EntryCredit,
			Description: e.Description,
			Amount:      e.Amount,
			Member:      names[e.LabourID],
			MemberID:    e.LabourID,
			Category:    e.Category,
			SourceID:    e.ID,
		})
	}
	for _, p := range payments {
		amount := p.Total
		memberID := ""
		if !ref.IsPair() {
			// Only this worker's allocation counts, never the payment total.
			alloc, ok := p.AllocationFor(ref.LabourID)
			if !ok {
				continue
			}
			amount = alloc
			memberID = ref.LabourID
		}
		lines = append(lines, core.LedgerEntry{
			Date:        p.Date,
			Kind:        core.EntryDebit,
			Description: p.Description,
			Amount:      amount.Neg(),
			Member:      names[memberID],
			MemberID:    memberID,
			SourceID:    p.ID,
		})
	}
	for _, a := range adjustments {
		amount := a.Amount
		if a.Kind == core.EntryDebit {
			amount = amount.Neg()
		}
		lines = append(lines, core.LedgerEntry{
			Date:        a.Date,
			Kind:        a.Kind,
			Description: a.Description,
			Amount:      amount,
			Member:      names[a.LabourID],
			MemberID:    a.LabourID,
			SourceID:    a.ID,
		})
	}
	return lines, nil
}
