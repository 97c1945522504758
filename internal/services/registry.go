// Package services holds the business rules of the ledger engine: worker
// lifecycle and linking, wage distribution, ledger reconstruction and entity
// search. Everything here talks to persistence through the store ports only.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"khata/internal/core"
	"khata/internal/store"
)

// Registry owns the lifecycle of workers and linked pairs and is the single
// sanctioned path for balance mutation.
type Registry struct {
	store store.Store
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

// CreateLabourInput carries the caller-supplied fields for a new worker.
type CreateLabourInput struct {
	Org            string
	Name           string
	Gender         core.Gender
	Status         core.Status
	Tags           []string
	VehicleID      string
	OpeningBalance core.Money
}

func (in CreateLabourInput) validate() error {
	var violations []string
	if strings.TrimSpace(in.Name) == "" {
		violations = append(violations, "name must not be empty")
	}
	if !in.Gender.Valid() {
		violations = append(violations, fmt.Sprintf("gender %q is not one of male, female, other", in.Gender))
	}
	if strings.TrimSpace(in.Org) == "" {
		violations = append(violations, "organization must not be empty")
	}
	if in.Status != "" && !in.Status.Valid() {
		violations = append(violations, fmt.Sprintf("status %q is not one of active, inactive", in.Status))
	}
	for _, t := range in.Tags {
		if strings.TrimSpace(t) == "" {
			violations = append(violations, "tags must not contain empty values")
			break
		}
	}
	if in.OpeningBalance.Paise < 0 {
		violations = append(violations, "opening balance must not be negative")
	}
	return core.NewValidationError(violations)
}

// CreateLabour validates every field rule at once, generates the
// human-readable labour code and persists the worker with its opening
// balance as the current balance.
func (r *Registry) CreateLabour(ctx context.Context, in CreateLabourInput) (core.Labour, error) {
	if err := in.validate(); err != nil {
		return core.Labour{}, err
	}

	status := in.Status
	if status == "" {
		status = core.StatusActive
	}
	now := time.Now().UTC()
	l := core.Labour{
		ID:             uuid.NewString(),
		Code:           newLabourCode(),
		Org:            in.Org,
		Name:           strings.TrimSpace(in.Name),
		Gender:         in.Gender,
		Status:         status,
		Tags:           in.Tags,
		VehicleID:      in.VehicleID,
		CurrentBalance: in.OpeningBalance,
		OpeningBalance: in.OpeningBalance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.store.CreateLabour(ctx, l); err != nil {
		return core.Labour{}, &core.DatabaseError{Op: "CreateLabour", Err: err}
	}

	slog.InfoContext(ctx, "Labour created",
		"id", l.ID,
		"code", l.Code,
		"org", l.Org,
		"opening_balance", l.OpeningBalance.String())
	return l, nil
}

// UpdateLabour applies partial-update semantics: only supplied fields are
// validated and written, the rest stay untouched.
func (r *Registry) UpdateLabour(ctx context.Context, id string, upd store.LabourUpdate) error {
	var violations []string
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		violations = append(violations, "name must not be empty")
	}
	if upd.Gender != nil && !upd.Gender.Valid() {
		violations = append(violations, fmt.Sprintf("gender %q is not one of male, female, other", *upd.Gender))
	}
	if upd.Status != nil && !upd.Status.Valid() {
		violations = append(violations, fmt.Sprintf("status %q is not one of active, inactive", *upd.Status))
	}
	if upd.Tags != nil {
		for _, t := range *upd.Tags {
			if strings.TrimSpace(t) == "" {
				violations = append(violations, "tags must not contain empty values")
				break
			}
		}
	}
	if upd.OpeningBalance != nil && upd.OpeningBalance.Paise < 0 {
		violations = append(violations, "opening balance must not be negative")
	}
	if err := core.NewValidationError(violations); err != nil {
		return err
	}

	if err := r.store.UpdateLabour(ctx, id, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &core.NotFoundError{Kind: "labour", Ref: id}
		}
		return &core.DatabaseError{Op: "UpdateLabour", Err: err}
	}
	return nil
}

// DeleteLabour removes a worker. A linked worker is never deleted: that
// would orphan the pair and its shared balance.
func (r *Registry) DeleteLabour(ctx context.Context, id string) error {
	l, err := r.getLabour(ctx, id)
	if err != nil {
		return err
	}
	if l.IsLinked {
		return core.NewDomainError("labour %s is linked; dissolve the pair before deleting", l.Code)
	}
	if err := r.store.DeleteLabour(ctx, id); err != nil {
		return &core.DatabaseError{Op: "DeleteLabour", Err: err}
	}
	slog.InfoContext(ctx, "Labour deleted", "id", id, "code", l.Code)
	return nil
}

func (r *Registry) GetLabour(ctx context.Context, id string) (core.Labour, error) {
	return r.getLabour(ctx, id)
}

func (r *Registry) GetPair(ctx context.Context, id string) (core.LinkedPair, error) {
	p, err := r.store.GetPair(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.LinkedPair{}, &core.NotFoundError{Kind: "linked pair", Ref: id}
		}
		return core.LinkedPair{}, &core.DatabaseError{Op: "GetPair", Err: err}
	}
	return p, nil
}

// CreateLinkedPair merges two workers into one shared-balance unit. The
// shared balance starts as the sum of both current balances, so prior
// individual earnings are preserved. Member updates are applied in fixed
// order (A then B); a partial failure is surfaced as a DatabaseError and the
// pair must be re-verified before retrying.
func (r *Registry) CreateLinkedPair(ctx context.Context, idA, idB string) (core.LinkedPair, error) {
	if idA == idB {
		return core.LinkedPair{}, core.NewDomainError("cannot link a worker to itself")
	}
	a, err := r.getLabour(ctx, idA)
	if err != nil {
		return core.LinkedPair{}, err
	}
	b, err := r.getLabour(ctx, idB)
	if err != nil {
		return core.LinkedPair{}, err
	}
	if a.IsLinked {
		return core.LinkedPair{}, core.NewDomainError("labour %s is already linked", a.Code)
	}
	if b.IsLinked {
		return core.LinkedPair{}, core.NewDomainError("labour %s is already linked", b.Code)
	}
	if a.Org != b.Org {
		return core.LinkedPair{}, core.NewDomainError("labours %s and %s belong to different organizations", a.Code, b.Code)
	}

	pair := core.LinkedPair{
		ID:            uuid.NewString(),
		Org:           a.Org,
		MemberA:       a.ID,
		MemberB:       b.ID,
		Status:        core.StatusActive,
		SharedBalance: a.CurrentBalance.Add(b.CurrentBalance),
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.store.CreatePair(ctx, pair); err != nil {
		return core.LinkedPair{}, &core.DatabaseError{Op: "CreatePair", Err: err}
	}
	if err := r.store.SetLabourLink(ctx, a.ID, pair.ID, true, core.Money{}); err != nil {
		return core.LinkedPair{}, &core.DatabaseError{Op: "SetLabourLink", Err: err}
	}
	if err := r.store.SetLabourLink(ctx, b.ID, pair.ID, true, core.Money{}); err != nil {
		return core.LinkedPair{}, &core.DatabaseError{Op: "SetLabourLink", Err: err}
	}

	slog.InfoContext(ctx, "Linked pair created",
		"pair_id", pair.ID,
		"member_a", a.Code,
		"member_b", b.Code,
		"shared_balance", pair.SharedBalance.String())
	return pair, nil
}

// DissolveLinkedPair splits the shared balance evenly back onto the two
// members and removes the pair. An odd paisa goes to member A, so no money
// is ever lost: a + b == shared holds exactly.
func (r *Registry) DissolveLinkedPair(ctx context.Context, pairID string) error {
	pair, err := r.GetPair(ctx, pairID)
	if err != nil {
		return err
	}

	shareA, shareB := core.SplitHalf(pair.SharedBalance)
	if err := r.store.SetLabourLink(ctx, pair.MemberA, "", false, shareA); err != nil {
		return &core.DatabaseError{Op: "SetLabourLink", Err: err}
	}
	if err := r.store.SetLabourLink(ctx, pair.MemberB, "", false, shareB); err != nil {
		return &core.DatabaseError{Op: "SetLabourLink", Err: err}
	}
	if err := r.store.DeletePair(ctx, pairID); err != nil {
		return &core.DatabaseError{Op: "DeletePair", Err: err}
	}

	slog.InfoContext(ctx, "Linked pair dissolved",
		"pair_id", pairID,
		"share_a", shareA.String(),
		"share_b", shareB.String())
	return nil
}

// UpdateBalance is the single choke point for applying a credit or debit to
// a worker. Linked workers route the delta to the pair's shared balance;
// either way the store applies it as an atomic increment. Positive deltas
// accrue to the worker's total earned, negative ones to total paid.
func (r *Registry) UpdateBalance(ctx context.Context, labourID string, delta core.Money, reason string) error {
	l, err := r.getLabour(ctx, labourID)
	if err != nil {
		return err
	}

	var earned, paid core.Money
	if delta.IsPositive() {
		earned = delta
	} else {
		paid = delta.Neg()
	}

	if l.IsLinked {
		if err := r.store.AdjustPairBalance(ctx, l.PairID, delta); err != nil {
			return &core.DatabaseError{Op: "AdjustPairBalance", Err: err}
		}
		// The member's own balance stays pinned to zero; only totals move.
		if err := r.store.AdjustLabourBalance(ctx, l.ID, core.Money{}, earned, paid); err != nil {
			return &core.DatabaseError{Op: "AdjustLabourBalance", Err: err}
		}
	} else {
		if err := r.store.AdjustLabourBalance(ctx, l.ID, delta, earned, paid); err != nil {
			return &core.DatabaseError{Op: "AdjustLabourBalance", Err: err}
		}
	}

	slog.InfoContext(ctx, "Balance updated",
		"labour_id", labourID,
		"linked", l.IsLinked,
		"delta", delta.String(),
		"reason", reason)
	return nil
}

func (r *Registry) getLabour(ctx context.Context, id string) (core.Labour, error) {
	l, err := r.store.GetLabour(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Labour{}, &core.NotFoundError{Kind: "labour", Ref: id}
		}
		return core.Labour{}, &core.DatabaseError{Op: "GetLabour", Err: err}
	}
	return l, nil
}

// newLabourCode builds the human-readable code shown on payslips and used
// for lookups, distinct from the internal identifier.
func newLabourCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "LAB-" + strings.ToUpper(raw[:6])
}
