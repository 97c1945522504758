package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/store"
)

// WagePublisher announces persisted wage entries to the export pipeline.
// A nil publisher disables announcements; a publish failure never fails the
// posting itself.
type WagePublisher interface {
	PublishWagePosted(ctx context.Context, msg *amqp.WagePostedMessage) error
}

// Wages turns gross amounts and production output into per-worker wage
// postings and applies them to balances through the registry choke point.
type Wages struct {
	store     store.Store
	registry  *Registry
	publisher WagePublisher
}

func NewWages(s store.Store, registry *Registry, publisher WagePublisher) *Wages {
	return &Wages{store: s, registry: registry, publisher: publisher}
}

// CustomWage is one caller-specified posting in a custom distribution.
type CustomWage struct {
	Code   string
	Amount core.Money
}

// DistributeEqualWage splits total equally over the flat list of worker
// codes and posts one wage entry per worker. Linked-pair grouping only
// affects the description text, never the per-head amount. Every code is
// resolved before the first write, so a bad code means no postings at all.
func (w *Wages) DistributeEqualWage(ctx context.Context, org string, total core.Money, codes []string, category core.WageCategory, description string) ([]core.WageEntry, error) {
	var violations []string
	if !total.IsPositive() {
		violations = append(violations, "total amount must be positive")
	}
	if len(codes) == 0 {
		violations = append(violations, "at least one worker code is required")
	}
	if !category.Valid() {
		violations = append(violations, fmt.Sprintf("category %q is not valid", category))
	}
	if err := core.NewValidationError(violations); err != nil {
		return nil, err
	}

	workers, err := w.resolveCodes(ctx, org, codes)
	if err != nil {
		return nil, err
	}

	shares := core.SplitEven(total, len(workers))
	entries := make([]core.WageEntry, len(workers))
	batchID := uuid.NewString()
	now := time.Now().UTC()
	for i, l := range workers {
		entries[i] = core.WageEntry{
			ID:          uuid.NewString(),
			Org:         org,
			LabourID:    l.ID,
			Amount:      shares[i],
			Description: describeFor(description, l),
			Category:    category,
			BatchID:     batchID,
			CreatedAt:   now,
		}
	}
	if err := w.post(ctx, entries); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Equal wage distributed",
		"org", org,
		"total", total.String(),
		"workers", len(workers),
		"batch_id", batchID)
	return entries, nil
}

// DistributeCustomWage posts caller-specified amounts verbatim, one entry
// per item. All amounts and codes are validated before anything is written.
func (w *Wages) DistributeCustomWage(ctx context.Context, org string, items []CustomWage, category core.WageCategory, description string) ([]core.WageEntry, error) {
	var violations []string
	if len(items) == 0 {
		violations = append(violations, "at least one wage item is required")
	}
	for _, it := range items {
		if !it.Amount.IsPositive() {
			violations = append(violations, fmt.Sprintf("amount for %s must be positive", it.Code))
		}
	}
	if !category.Valid() {
		violations = append(violations, fmt.Sprintf("category %q is not valid", category))
	}
	if err := core.NewValidationError(violations); err != nil {
		return nil, err
	}

	codes := make([]string, len(items))
	for i, it := range items {
		codes[i] = it.Code
	}
	workers, err := w.resolveCodes(ctx, org, codes)
	if err != nil {
		return nil, err
	}

	entries := make([]core.WageEntry, len(items))
	batchID := uuid.NewString()
	now := time.Now().UTC()
	for i, it := range items {
		entries[i] = core.WageEntry{
			ID:          uuid.NewString(),
			Org:         org,
			LabourID:    workers[i].ID,
			Amount:      it.Amount,
			Description: describeFor(description, workers[i]),
			Category:    category,
			BatchID:     batchID,
			CreatedAt:   now,
		}
	}
	if err := w.post(ctx, entries); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Custom wage distributed",
		"org", org,
		"workers", len(workers),
		"batch_id", batchID)
	return entries, nil
}

// ProductionWageInput feeds the pure production wage calculation. Both wage
// rates are per thousand units.
type ProductionWageInput struct {
	ProductionUnits int64
	WagePer1000     core.Money
	ThappiUnits     int64
	WagePerThappi   core.Money
	WorkerCodes     []string
	Date            time.Time
}

type WageShare struct {
	Code   string
	Amount core.Money
}

type ProductionWageResult struct {
	Total     core.Money
	PerWorker []WageShare
}

// CalculateProductionWage computes the total wage for a production run and
// its equal split across the crew. Pure function, no I/O.
func CalculateProductionWage(in ProductionWageInput) (ProductionWageResult, error) {
	var violations []string
	if in.ProductionUnits <= 0 {
		violations = append(violations, "production units must be positive")
	}
	if in.ThappiUnits < 0 {
		violations = append(violations, "thappi units must not be negative")
	}
	if !in.WagePer1000.IsPositive() {
		violations = append(violations, "production wage rate must be positive")
	}
	if !in.WagePerThappi.IsPositive() {
		violations = append(violations, "thappi wage rate must be positive")
	}
	if len(in.WorkerCodes) == 0 {
		violations = append(violations, "at least one worker code is required")
	}
	if in.Date.IsZero() {
		violations = append(violations, "date is required")
	}
	if err := core.NewValidationError(violations); err != nil {
		return ProductionWageResult{}, err
	}

	total := core.PerThousand(in.ProductionUnits, in.WagePer1000).
		Add(core.PerThousand(in.ThappiUnits, in.WagePerThappi))
	shares := core.SplitEven(total, len(in.WorkerCodes))
	out := ProductionWageResult{Total: total, PerWorker: make([]WageShare, len(in.WorkerCodes))}
	for i, code := range in.WorkerCodes {
		out.PerWorker[i] = WageShare{Code: code, Amount: shares[i]}
	}
	return out, nil
}

// ProcessWagePayment applies posted entries to balances. Entries are
// aggregated per worker first so the registry is called once per worker with
// the combined amount; a linked pair's shared balance gets one bump per
// member, never one per entry.
func (w *Wages) ProcessWagePayment(ctx context.Context, entries []core.WageEntry) error {
	totals := make(map[string]core.Money)
	var order []string
	for _, e := range entries {
		if _, seen := totals[e.LabourID]; !seen {
			order = append(order, e.LabourID)
		}
		totals[e.LabourID] = totals[e.LabourID].Add(e.Amount)
	}
	for _, labourID := range order {
		if err := w.registry.UpdateBalance(ctx, labourID, totals[labourID], "wage payment"); err != nil {
			return err
		}
	}
	return nil
}

// resolveCodes maps every worker code to its Labour record, failing fast
// before any posting when a code does not resolve.
func (w *Wages) resolveCodes(ctx context.Context, org string, codes []string) ([]core.Labour, error) {
	workers := make([]core.Labour, len(codes))
	for i, code := range codes {
		l, err := w.store.GetLabourByCode(ctx, org, strings.TrimSpace(code))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &core.NotFoundError{Kind: "labour", Ref: code}
			}
			return nil, &core.DatabaseError{Op: "GetLabourByCode", Err: err}
		}
		workers[i] = l
	}
	return workers, nil
}

func (w *Wages) post(ctx context.Context, entries []core.WageEntry) error {
	for _, e := range entries {
		if err := w.store.CreateWageEntry(ctx, e); err != nil {
			return &core.DatabaseError{Op: "CreateWageEntry", Err: err}
		}
	}
	if w.publisher == nil {
		return nil
	}
	for _, e := range entries {
		msg := amqp.NewWagePostedMessage(e.ID, e.LabourID, e.Org)
		if err := w.publisher.PublishWagePosted(ctx, msg); err != nil {
			// The entry is persisted; the export worker catches up on its own.
			slog.ErrorContext(ctx, "Failed to publish wage-posted message",
				"entry_id", e.ID, "error", err)
		}
	}
	return nil
}

func describeFor(description string, l core.Labour) string {
	if l.IsLinked {
		return description + " (joint account)"
	}
	return description
}
