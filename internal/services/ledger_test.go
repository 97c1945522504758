package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"khata/internal/core"
	"khata/internal/store/memory"
)

func ledgerDay(d int) time.Time {
	return time.Date(2026, time.April, d, 0, 0, 0, 0, time.UTC)
}

func TestLedgerForLabour(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	svc := NewLedger(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(200))

	if err := st.CreateWageEntry(ctx, core.WageEntry{
		ID:          "w1",
		Org:         "kiln-1",
		LabourID:    l.ID,
		Amount:      core.Rupees(150),
		Description: "week 12 wages",
		Category:    core.CategoryProduction,
		CreatedAt:   ledgerDay(2),
	}); err != nil {
		t.Fatalf("CreateWageEntry: %v", err)
	}
	if err := st.CreatePayment(ctx, core.Payment{
		ID:          "p1",
		Org:         "kiln-1",
		Total:       core.Rupees(50),
		Description: "advance",
		Date:        ledgerDay(5),
		Allocations: []core.PaymentAllocation{{LabourID: l.ID, Amount: core.Rupees(50)}},
	}); err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	res, err := svc.ForLabour(ctx, l.ID, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ForLabour: %v", err)
	}
	if res.EntityName != "Ram" {
		t.Errorf("entity name = %q, want Ram", res.EntityName)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("got %d entries, want opening + credit + debit", len(res.Entries))
	}
	if res.Entries[1].Amount != core.Rupees(150) {
		t.Errorf("credit amount = %s, want +150.00", res.Entries[1].Amount)
	}
	if res.Entries[2].Amount != core.Rupees(50).Neg() {
		t.Errorf("debit amount = %s, want -50.00", res.Entries[2].Amount)
	}
	if res.Summary.Closing != core.Rupees(300) {
		t.Errorf("closing = %s, want 300.00", res.Summary.Closing)
	}
	if last := res.Entries[2].Running; last != res.Summary.Closing {
		t.Errorf("last running %s != closing %s", last, res.Summary.Closing)
	}
}

func TestLedgerBuildIsIdempotent(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	svc := NewLedger(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(100))
	_ = st.CreateWageEntry(ctx, core.WageEntry{
		ID: "w1", Org: "kiln-1", LabourID: l.ID,
		Amount: core.Rupees(80), Category: core.CategoryBonus, CreatedAt: ledgerDay(3),
	})

	first, err := svc.ForLabour(ctx, l.ID, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	second, err := svc.ForLabour(ctx, l.ID, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("entry counts differ: %d vs %d", len(first.Entries), len(second.Entries))
	}
	if first.Summary.Opening != second.Summary.Opening ||
		first.Summary.Credits != second.Summary.Credits ||
		first.Summary.Debits != second.Summary.Debits ||
		first.Summary.Closing != second.Summary.Closing {
		t.Errorf("summaries differ across rebuilds: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestLedgerForLabourPaymentAllocationOnly(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	svc := NewLedger(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Money{})
	other := newTestLabour(t, r, "kiln-1", "Shyam", core.Money{})

	// A group payment where Ram's share is 30 of 100.
	_ = st.CreatePayment(ctx, core.Payment{
		ID: "p1", Org: "kiln-1",
		Total:       core.Rupees(100),
		Description: "group payout",
		Date:        ledgerDay(4),
		Allocations: []core.PaymentAllocation{
			{LabourID: l.ID, Amount: core.Rupees(30)},
			{LabourID: other.ID, Amount: core.Rupees(70)},
		},
	})

	res, err := svc.ForLabour(ctx, l.ID, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ForLabour: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want opening + allocation debit", len(res.Entries))
	}
	if res.Entries[1].Amount != core.Rupees(30).Neg() {
		t.Errorf("debit = %s, want the worker's -30.00 allocation, not the total", res.Entries[1].Amount)
	}
}

func TestLedgerForPair(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	svc := NewLedger(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(100))
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Rupees(50))
	pair, err := r.CreateLinkedPair(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}

	_ = st.CreateWageEntry(ctx, core.WageEntry{
		ID: "w1", Org: "kiln-1", LabourID: a.ID,
		Amount: core.Rupees(300), Category: core.CategoryProduction, CreatedAt: ledgerDay(2),
	})
	_ = st.CreateWageEntry(ctx, core.WageEntry{
		ID: "w2", Org: "kiln-1", LabourID: b.ID,
		Amount: core.Rupees(200), Category: core.CategoryProduction, CreatedAt: ledgerDay(3),
	})
	_ = st.CreatePayment(ctx, core.Payment{
		ID: "p1", Org: "kiln-1", PairID: pair.ID,
		Total: core.Rupees(80), Description: "advance", Date: ledgerDay(6),
	})

	res, err := svc.ForPair(ctx, pair.ID, core.LedgerFilter{})
	if err != nil {
		t.Fatalf("ForPair: %v", err)
	}
	if res.EntityName != "Ram & Shyam" {
		t.Errorf("entity name = %q, want Ram & Shyam", res.EntityName)
	}
	if res.Summary.Opening != core.Rupees(150) {
		t.Errorf("opening = %s, want 150.00 (sum of member openings)", res.Summary.Opening)
	}
	if res.Summary.Credits != core.Rupees(500) {
		t.Errorf("credits = %s, want 500.00", res.Summary.Credits)
	}
	if res.Summary.Debits != core.Rupees(80) {
		t.Errorf("debits = %s, want 80.00", res.Summary.Debits)
	}
	if res.Summary.Closing != core.Rupees(570) {
		t.Errorf("closing = %s, want 570.00", res.Summary.Closing)
	}

	if len(res.Summary.Members) != 2 {
		t.Fatalf("got %d member breakdowns, want 2", len(res.Summary.Members))
	}
	ma, mb := res.Summary.Members[0], res.Summary.Members[1]
	if ma.Credits != core.Rupees(300) || mb.Credits != core.Rupees(200) {
		t.Errorf("member credits = %s / %s, want 300.00 / 200.00", ma.Credits, mb.Credits)
	}
	if ma.Debits.Add(mb.Debits) != core.Rupees(80) {
		t.Errorf("member debits %s + %s do not reassemble to 80.00", ma.Debits, mb.Debits)
	}
}

func TestLedgerNotFound(t *testing.T) {
	st := memory.New()
	svc := NewLedger(st)

	_, err := svc.ForLabour(context.Background(), "missing", core.LedgerFilter{})
	var nf *core.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	_, err = svc.ForPair(context.Background(), "missing", core.LedgerFilter{})
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for pair, got %v", err)
	}
}

func TestLedgerStoreFailureWrapped(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	svc := NewLedger(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Money{})

	st.FailNextRead = errors.New("disk gone")
	_, err := svc.ForLabour(ctx, l.ID, core.LedgerFilter{})
	var de *core.DatabaseError
	if !errors.As(err, &de) {
		t.Fatalf("expected DatabaseError, got %v", err)
	}
}
