// Package store defines the persistence ports of the ledger engine: typed
// create/read/update/delete and filtered-list operations over the four record
// kinds, plus atomic balance increments. No business rules live here.
package store

import (
	"context"
	"errors"
	"time"

	"khata/internal/core"
)

// ErrNotFound is returned by Get operations when no record matches.
// Services translate it into the domain NotFoundError.
var ErrNotFound = errors.New("record not found")

type (
	// LabourUpdate carries partial-update semantics: nil fields are left
	// untouched.
	LabourUpdate struct {
		Name           *string
		Gender         *core.Gender
		Status         *core.Status
		Tags           *[]string
		VehicleID      *string
		OpeningBalance *core.Money
	}

	LabourFilter struct {
		Org    string
		Status core.Status
		Limit  int
	}

	WageFilter struct {
		Org       string
		LabourIDs []string
		From      time.Time
		To        time.Time
		Category  core.WageCategory
	}

	PaymentFilter struct {
		Org      string
		LabourID string
		PairID   string
		From     time.Time
		To       time.Time
	}

	AdjustmentFilter struct {
		Org       string
		LabourIDs []string
		PairID    string
		From      time.Time
		To        time.Time
	}
)

// Store is the full persistence surface. Both the sqlite and the in-memory
// implementations satisfy it; services depend on this interface only.
type Store interface {
	CreateLabour(ctx context.Context, l core.Labour) error
	GetLabour(ctx context.Context, id string) (core.Labour, error)
	GetLabourByCode(ctx context.Context, org, code string) (core.Labour, error)
	UpdateLabour(ctx context.Context, id string, upd LabourUpdate) error
	DeleteLabour(ctx context.Context, id string) error
	ListLabours(ctx context.Context, f LabourFilter) ([]core.Labour, error)

	// SetLabourLink flips the link state of one worker and pins its balance
	// in the same write.
	SetLabourLink(ctx context.Context, id, pairID string, linked bool, balance core.Money) error

	// AdjustLabourBalance applies the deltas as a single atomic increment at
	// the store level, never read-modify-write in application code.
	AdjustLabourBalance(ctx context.Context, id string, balanceDelta, earnedDelta, paidDelta core.Money) error

	CreatePair(ctx context.Context, p core.LinkedPair) error
	GetPair(ctx context.Context, id string) (core.LinkedPair, error)
	DeletePair(ctx context.Context, id string) error
	ListPairs(ctx context.Context, org string) ([]core.LinkedPair, error)
	AdjustPairBalance(ctx context.Context, id string, delta core.Money) error

	CreateWageEntry(ctx context.Context, e core.WageEntry) error
	GetWageEntry(ctx context.Context, id string) (core.WageEntry, error)
	ListWageEntries(ctx context.Context, f WageFilter) ([]core.WageEntry, error)
	ListUnsyncedWageEntries(ctx context.Context, limit int) ([]core.WageEntry, error)
	MarkWageEntrySynced(ctx context.Context, id string) error

	CreatePayment(ctx context.Context, p core.Payment) error
	ListPayments(ctx context.Context, f PaymentFilter) ([]core.Payment, error)

	CreateAdjustment(ctx context.Context, a core.Adjustment) error
	ListAdjustments(ctx context.Context, f AdjustmentFilter) ([]core.Adjustment, error)
}
