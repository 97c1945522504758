package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"khata/internal/core"
	"khata/internal/store"
	"khata/internal/store/memory"
)

func newTestLabour(t *testing.T, r *Registry, org, name string, opening core.Money) core.Labour {
	t.Helper()
	l, err := r.CreateLabour(context.Background(), CreateLabourInput{
		Org:            org,
		Name:           name,
		Gender:         core.GenderMale,
		OpeningBalance: opening,
	})
	if err != nil {
		t.Fatalf("CreateLabour(%s): %v", name, err)
	}
	return l
}

func TestCreateLabourDefaults(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)

	l := newTestLabour(t, r, "kiln-1", "Ram Kumar", core.Rupees(500))

	if l.Status != core.StatusActive {
		t.Errorf("status = %s, want active default", l.Status)
	}
	if !strings.HasPrefix(l.Code, "LAB-") || len(l.Code) != 10 {
		t.Errorf("code = %q, want LAB- prefix with 6 hex chars", l.Code)
	}
	if l.CurrentBalance != core.Rupees(500) {
		t.Errorf("current balance = %s, want opening 500.00", l.CurrentBalance)
	}
	if l.OpeningBalance != core.Rupees(500) {
		t.Errorf("opening balance = %s, want 500.00", l.OpeningBalance)
	}
}

func TestCreateLabourCollectsAllViolations(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)

	_, err := r.CreateLabour(context.Background(), CreateLabourInput{
		Org:            "",
		Name:           "  ",
		Gender:         "unknown",
		Tags:           []string{"driver", ""},
		OpeningBalance: core.Money{Paise: -1},
	})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Violations) != 5 {
		t.Errorf("got %d violations, want all 5: %v", len(ve.Violations), ve.Violations)
	}
	if st.Writes() != 0 {
		t.Errorf("store saw %d writes on invalid input, want 0", st.Writes())
	}
}

func TestCreateLinkedPairSharedBalance(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(500))
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Rupees(300))

	pair, err := r.CreateLinkedPair(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}
	if pair.SharedBalance != core.Rupees(800) {
		t.Errorf("shared balance = %s, want 800.00", pair.SharedBalance)
	}

	for _, id := range []string{a.ID, b.ID} {
		got, err := r.GetLabour(ctx, id)
		if err != nil {
			t.Fatalf("GetLabour: %v", err)
		}
		if !got.IsLinked || got.PairID != pair.ID {
			t.Errorf("member %s not linked to pair", got.Name)
		}
		if !got.CurrentBalance.IsZero() {
			t.Errorf("member %s balance = %s, want pinned to 0", got.Name, got.CurrentBalance)
		}
	}
}

func TestUpdateBalanceRoutesToPair(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(500))
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Rupees(300))
	pair, err := r.CreateLinkedPair(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}

	if err := r.UpdateBalance(ctx, a.ID, core.Rupees(1000), "wage payment"); err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}

	gotPair, err := r.GetPair(ctx, pair.ID)
	if err != nil {
		t.Fatalf("GetPair: %v", err)
	}
	if gotPair.SharedBalance != core.Rupees(1800) {
		t.Errorf("shared balance = %s, want 1800.00", gotPair.SharedBalance)
	}

	gotA, _ := r.GetLabour(ctx, a.ID)
	if !gotA.CurrentBalance.IsZero() {
		t.Errorf("linked member balance = %s, want 0", gotA.CurrentBalance)
	}
	if gotA.TotalEarned != core.Rupees(1000) {
		t.Errorf("total earned = %s, want 1000.00", gotA.TotalEarned)
	}
}

func TestUpdateBalanceUnlinked(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(100))

	if err := r.UpdateBalance(ctx, l.ID, core.Rupees(250), "wage payment"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := r.UpdateBalance(ctx, l.ID, core.Rupees(50).Neg(), "advance"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	got, _ := r.GetLabour(ctx, l.ID)
	if got.CurrentBalance != core.Rupees(300) {
		t.Errorf("balance = %s, want 300.00", got.CurrentBalance)
	}
	if got.TotalEarned != core.Rupees(250) {
		t.Errorf("total earned = %s, want 250.00", got.TotalEarned)
	}
	if got.TotalPaid != core.Rupees(50) {
		t.Errorf("total paid = %s, want 50.00", got.TotalPaid)
	}
}

func TestDissolvePairConservesMoney(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Rupees(500))
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Rupees(300))
	pair, err := r.CreateLinkedPair(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}
	if err := r.UpdateBalance(ctx, a.ID, core.Rupees(1000), "wage payment"); err != nil {
		t.Fatalf("UpdateBalance: %v", err)
	}

	if err := r.DissolveLinkedPair(ctx, pair.ID); err != nil {
		t.Fatalf("DissolveLinkedPair: %v", err)
	}

	gotA, _ := r.GetLabour(ctx, a.ID)
	gotB, _ := r.GetLabour(ctx, b.ID)
	if gotA.CurrentBalance != core.Rupees(900) || gotB.CurrentBalance != core.Rupees(900) {
		t.Errorf("post-dissolution balances = %s / %s, want 900.00 each",
			gotA.CurrentBalance, gotB.CurrentBalance)
	}
	if gotA.IsLinked || gotB.IsLinked {
		t.Error("members still linked after dissolution")
	}
	if _, err := r.GetPair(ctx, pair.ID); err == nil {
		t.Error("pair still exists after dissolution")
	}
}

func TestDissolvePairOddPaisaToMemberA(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Money{Paise: 51})
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Money{Paise: 50})
	pair, err := r.CreateLinkedPair(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}
	if err := r.DissolveLinkedPair(ctx, pair.ID); err != nil {
		t.Fatalf("DissolveLinkedPair: %v", err)
	}

	gotA, _ := r.GetLabour(ctx, a.ID)
	gotB, _ := r.GetLabour(ctx, b.ID)
	total := gotA.CurrentBalance.Add(gotB.CurrentBalance)
	if total.Paise != 101 {
		t.Fatalf("total after dissolution = %d paise, want 101", total.Paise)
	}
	if gotA.CurrentBalance.Paise != 51 || gotB.CurrentBalance.Paise != 50 {
		t.Errorf("shares = %d / %d, want odd paisa on member A", gotA.CurrentBalance.Paise, gotB.CurrentBalance.Paise)
	}
}

func TestCreateLinkedPairRejections(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Money{})
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Money{})
	other := newTestLabour(t, r, "kiln-2", "Mohan", core.Money{})

	if _, err := r.CreateLinkedPair(ctx, a.ID, a.ID); err == nil {
		t.Error("self-link accepted")
	}
	if _, err := r.CreateLinkedPair(ctx, a.ID, "missing"); err == nil {
		t.Error("link to missing worker accepted")
	} else {
		var nf *core.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFoundError, got %v", err)
		}
	}

	writesBefore := st.Writes()
	if _, err := r.CreateLinkedPair(ctx, a.ID, other.ID); err == nil {
		t.Error("cross-organization link accepted")
	} else {
		var de *core.DomainError
		if !errors.As(err, &de) {
			t.Errorf("expected DomainError, got %v", err)
		}
	}
	if st.Writes() != writesBefore {
		t.Errorf("rejected link performed %d writes", st.Writes()-writesBefore)
	}

	if _, err := r.CreateLinkedPair(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}
	c := newTestLabour(t, r, "kiln-1", "Sita", core.Money{})
	if _, err := r.CreateLinkedPair(ctx, a.ID, c.ID); err == nil {
		t.Error("double-link accepted")
	}
}

func TestDeleteLinkedLabourRefused(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	a := newTestLabour(t, r, "kiln-1", "Ram", core.Money{})
	b := newTestLabour(t, r, "kiln-1", "Shyam", core.Money{})
	if _, err := r.CreateLinkedPair(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("CreateLinkedPair: %v", err)
	}

	err := r.DeleteLabour(ctx, a.ID)
	var de *core.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError deleting linked worker, got %v", err)
	}
	if _, err := r.GetLabour(ctx, a.ID); err != nil {
		t.Errorf("worker gone after refused delete: %v", err)
	}
}

func TestUpdateLabourPartial(t *testing.T) {
	st := memory.New()
	r := NewRegistry(st)
	ctx := context.Background()

	l := newTestLabour(t, r, "kiln-1", "Ram", core.Money{})

	name := "Ram Prasad"
	if err := r.UpdateLabour(ctx, l.ID, store.LabourUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateLabour: %v", err)
	}
	got, _ := r.GetLabour(ctx, l.ID)
	if got.Name != "Ram Prasad" {
		t.Errorf("name = %q, want %q", got.Name, "Ram Prasad")
	}
	if got.Gender != core.GenderMale {
		t.Errorf("gender changed to %q on partial update", got.Gender)
	}

	bad := core.Gender("unknown")
	err := r.UpdateLabour(ctx, l.ID, store.LabourUpdate{Gender: &bad})
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
