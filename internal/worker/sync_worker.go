// Package worker keeps the spreadsheet mirror in step with the ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// SyncWorker applies entry events to a sheets.Mirror. Events only carry
// identifiers, so created entries are read back from the ledger.
type SyncWorker struct {
	store  storage.Ledger
	mirror sheets.Mirror
	logger *slog.Logger

	mu     sync.Mutex
	owners map[string]struct{}
}

func NewSyncWorker(store storage.Ledger, mirror sheets.Mirror, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default().With(log.FieldComponent, log.ComponentWorker)
	}
	return &SyncWorker{store: store, mirror: mirror, logger: logger, owners: make(map[string]struct{})}
}

func (w *SyncWorker) remember(owner string) {
	if owner == "" {
		return
	}
	w.mu.Lock()
	w.owners[owner] = struct{}{}
	w.mu.Unlock()
}

// Owners lists, sorted, every owner an event has been received for.
func (w *SyncWorker) Owners() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.owners))
	for o := range w.owners {
		out = append(out, o)
	}
	slices.Sort(out)
	return out
}

// HandleEntryEvent is the amqp consumer callback. A returned error requeues
// the message.
func (w *SyncWorker) HandleEntryEvent(ctx context.Context, evt amqp.EntryEvent) error {
	w.logger.InfoContext(ctx, "Processing entry event",
		"type", evt.Type,
		"kind", evt.Kind,
		log.FieldEntryID, evt.ID)
	w.remember(evt.OwnerID)

	kind := sheets.Kind(evt.Kind)
	switch evt.Type {
	case amqp.EntryCreated:
		row, err := w.loadRow(ctx, kind, evt.OwnerID, evt.ID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted before we got to it; the delete event clears nothing.
			w.logger.InfoContext(ctx, "Entry no longer exists, skipping", log.FieldEntryID, evt.ID)
			return nil
		}
		if err != nil {
			return err
		}
		exists, err := w.mirrored(ctx, kind, evt.ID)
		if err != nil {
			return err
		}
		if exists {
			// Redelivered event.
			w.logger.InfoContext(ctx, "Entry already mirrored, skipping", log.FieldEntryID, evt.ID)
			return nil
		}
		ref, err := w.mirror.AppendRow(ctx, row)
		if err != nil {
			return fmt.Errorf("append row: %w", err)
		}
		w.logger.InfoContext(ctx, "Mirrored entry", log.FieldEntryID, evt.ID, "sheets_ref", ref)
		return nil

	case amqp.EntryDeleted:
		if err := w.mirror.DeleteRow(ctx, kind, evt.ID); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		w.logger.InfoContext(ctx, "Removed mirrored entry", log.FieldEntryID, evt.ID)
		return nil

	default:
		return fmt.Errorf("unknown event type %q", evt.Type)
	}
}

func (w *SyncWorker) mirrored(ctx context.Context, kind sheets.Kind, id string) (bool, error) {
	rows, err := w.mirror.ListRows(ctx, kind)
	if err != nil {
		return false, fmt.Errorf("list %s rows: %w", kind, err)
	}
	return slices.ContainsFunc(rows, func(r sheets.Row) bool { return r.ID == id }), nil
}

func (w *SyncWorker) loadRow(ctx context.Context, kind sheets.Kind, owner, id string) (sheets.Row, error) {
	switch kind {
	case sheets.KindExpense:
		e, err := w.store.GetExpense(ctx, owner, id)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get expense: %w", err)
		}
		return sheets.ExpenseRow(e), nil
	case sheets.KindIncome:
		i, err := w.store.GetIncome(ctx, owner, id)
		if err != nil {
			return sheets.Row{}, fmt.Errorf("get income: %w", err)
		}
		return sheets.IncomeRow(i), nil
	default:
		return sheets.Row{}, fmt.Errorf("unknown entry kind %q", kind)
	}
}

// ReconcileResult counts the changes Reconcile made.
type ReconcileResult struct {
	Appended int
	Removed  int
}

// Reconcile makes owner's rows in the mirror match the ledger, recovering
// from events lost while the worker was down and dropping duplicate rows.
func (w *SyncWorker) Reconcile(ctx context.Context, owner string) (ReconcileResult, error) {
	var res ReconcileResult

	expenses, err := w.store.ListExpenses(ctx, owner)
	if err != nil {
		return res, fmt.Errorf("list expenses: %w", err)
	}
	incomes, err := w.store.ListIncomes(ctx, owner)
	if err != nil {
		return res, fmt.Errorf("list incomes: %w", err)
	}

	want := map[sheets.Kind][]sheets.Row{}
	for _, e := range expenses {
		want[sheets.KindExpense] = append(want[sheets.KindExpense], sheets.ExpenseRow(e))
	}
	for _, i := range incomes {
		want[sheets.KindIncome] = append(want[sheets.KindIncome], sheets.IncomeRow(i))
	}

	for _, kind := range []sheets.Kind{sheets.KindExpense, sheets.KindIncome} {
		have, err := w.mirror.ListRows(ctx, kind)
		if err != nil {
			return res, fmt.Errorf("list %s rows: %w", kind, err)
		}
		// Copies per entry ID; more than one means a duplicated append.
		present := make(map[string]int, len(have))
		for _, r := range have {
			if r.Owner == owner {
				present[r.ID]++
			}
		}
		keep := make(map[string]bool, len(want[kind]))
		for _, r := range want[kind] {
			keep[r.ID] = true
			if present[r.ID] > 0 {
				continue
			}
			if _, err := w.mirror.AppendRow(ctx, r); err != nil {
				return res, fmt.Errorf("append row: %w", err)
			}
			res.Appended++
		}
		for id, n := range present {
			if keep[id] {
				n--
			}
			// DeleteRow clears one matching row per call.
			for ; n > 0; n-- {
				if err := w.mirror.DeleteRow(ctx, kind, id); err != nil {
					return res, fmt.Errorf("delete row: %w", err)
				}
				res.Removed++
			}
		}
	}

	w.logger.InfoContext(ctx, "Reconciled mirror",
		log.FieldOwner, owner,
		"appended", res.Appended,
		"removed", res.Removed)
	return res, nil
}

// ReconcileKnown reconciles every owner returned by Owners. It keeps going
// past failures and returns them joined.
func (w *SyncWorker) ReconcileKnown(ctx context.Context) (ReconcileResult, error) {
	var (
		total ReconcileResult
		errs  []error
	)
	for _, owner := range w.Owners() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := w.Reconcile(ctx, owner)
		total.Appended += res.Appended
		total.Removed += res.Removed
		if err != nil {
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
		}
	}
	return total, errors.Join(errs...)
}
