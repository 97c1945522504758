// Package worker drains posted wage entries into the spreadsheet backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"khata/internal/amqp"
	"khata/internal/export"
	"khata/internal/store"
)

// ExportWorker pushes wage entries from the store to the spreadsheet and
// marks them synced. AMQP messages drive it; ProcessPending is the backup
// path for messages that were lost.
type ExportWorker struct {
	store     store.Store
	writer    export.WageRowWriter
	batchSize int
}

func NewExportWorker(st store.Store, writer export.WageRowWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     st,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleWagePosted processes a single wage-posted message from AMQP.
func (w *ExportWorker) HandleWagePosted(ctx context.Context, msg *amqp.WagePostedMessage) error {
	slog.InfoContext(ctx, "Processing wage posted message",
		"entry_id", msg.EntryID,
		"labour_id", msg.LabourID)

	if err := w.exportEntry(ctx, msg.EntryID); err != nil {
		return fmt.Errorf("export wage entry: %w", err)
	}
	return nil
}

// ProcessPending exports any wage entries that were never synced. This is
// a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedWageEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced wage entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending wage entries", "count", len(pending))

	for _, e := range pending {
		if err := w.exportEntry(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export wage entry", "entry_id", e.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck drains a larger pending backlog once at worker startup to
// recover from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedWageEntries(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unsynced wage entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending wage entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending wage entries on startup, processing...",
		"count", len(pending))

	exported := 0
	failed := 0
	for _, e := range pending {
		if err := w.exportEntry(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export wage entry during startup",
				"entry_id", e.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportEntry(ctx context.Context, entryID string) error {
	entry, err := w.store.GetWageEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get wage entry: %w", err)
	}
	if entry.Synced {
		slog.DebugContext(ctx, "Wage entry already synced, skipping", "entry_id", entryID)
		return nil
	}

	labour, err := w.store.GetLabour(ctx, entry.LabourID)
	if err != nil {
		return fmt.Errorf("get labour %s: %w", entry.LabourID, err)
	}

	ref, err := w.writer.AppendWageRow(ctx, entry, labour.Name)
	if err != nil {
		return fmt.Errorf("append wage row: %w", err)
	}

	if err := w.store.MarkWageEntrySynced(ctx, entryID); err != nil {
		// The row is already on the sheet; log and move on rather than
		// failing the message and appending a duplicate on redelivery.
		slog.ErrorContext(ctx, "Failed to mark wage entry synced", "entry_id", entryID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Exported wage entry",
		"entry_id", entryID,
		"worker", labour.Name,
		"row_ref", ref,
		"amount_paise", entry.Amount.Paise)
	return nil
}
