// Package worker mirrors ledger records into the spreadsheet. Records are
// synced when their AMQP message arrives, with a periodic sweep of unsynced
// rows as the fallback for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"

	"boutique/internal/amqp"
	"boutique/internal/core"
	"boutique/internal/log"
	"boutique/internal/sheets"
	"boutique/internal/storage"
)

// Repository is the part of the backend the worker needs.
type Repository interface {
	storage.Reader
	storage.SyncTracker
}

// SyncWorker appends records to their spreadsheet tab and marks them synced.
type SyncWorker struct {
	repo      Repository
	appender  sheets.RowAppender
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(repo Repository, appender sheets.RowAppender, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		repo:      repo,
		appender:  appender,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// EnsureHeaders stamps the header row on every empty tab, when the appender
// supports it.
func (w *SyncWorker) EnsureHeaders(ctx context.Context) error {
	hw, ok := w.appender.(sheets.HeaderWriter)
	if !ok {
		return nil
	}
	for _, c := range core.Collections {
		tab, err := sheets.TabFor(c)
		if err != nil {
			return err
		}
		if err := hw.EnsureHeader(ctx, tab, sheets.Headers[tab]); err != nil {
			return fmt.Errorf("ensure header for %s: %w", tab, err)
		}
	}
	return nil
}

// HandleRecordSync processes one record sync message. A record that no
// longer exists is acknowledged and skipped.
func (w *SyncWorker) HandleRecordSync(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldCollection, string(msg.Collection),
		log.FieldRecordID, msg.ID,
		log.FieldOperation, msg.Op)

	err := w.syncRecord(ctx, msg.Collection, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Record to sync not found, skipping",
			log.FieldCollection, string(msg.Collection),
			log.FieldRecordID, msg.ID)
		return nil
	}
	return err
}

// SyncPending sweeps every collection for records that were never synced.
// It returns the number of rows appended; individual failures are logged
// and retried on the next sweep.
func (w *SyncWorker) SyncPending(ctx context.Context) (int, error) {
	total := 0
	for _, c := range core.Collections {
		ids, err := w.repo.PendingSync(ctx, c, w.batchSize)
		if err != nil {
			return total, fmt.Errorf("pending %s: %w", c, err)
		}
		if len(ids) == 0 {
			continue
		}
		w.logger.InfoContext(ctx, "Processing pending records",
			log.FieldCollection, string(c),
			"count", len(ids))

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			if err := w.syncRecord(ctx, c, id); err != nil {
				w.logger.ErrorContext(ctx, "Failed to sync record",
					log.FieldCollection, string(c),
					log.FieldRecordID, id,
					log.FieldError, err)
				continue
			}
			total++
		}
	}
	if total > 0 {
		w.logger.InfoContext(ctx, "Pending sync completed", "synced", total)
	}
	return total, nil
}

func (w *SyncWorker) syncRecord(ctx context.Context, c core.Collection, id string) error {
	tab, err := sheets.TabFor(c)
	if err != nil {
		return err
	}
	row, err := w.row(ctx, c, id)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", c.Noun(), id, err)
	}

	ref, err := w.appender.AppendRow(ctx, tab, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is already in the sheet; a failed mark means it is appended
	// again on the next sweep, which is preferable to failing the message.
	if err := w.repo.MarkSynced(ctx, c, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced",
			log.FieldCollection, string(c),
			log.FieldRecordID, id,
			log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Synced record",
		log.FieldCollection, string(c),
		log.FieldRecordID, id,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *SyncWorker) row(ctx context.Context, c core.Collection, id string) ([]any, error) {
	switch c {
	case core.CollectionSales:
		r, err := w.repo.GetSale(ctx, id)
		if err != nil {
			return nil, err
		}
		return sheets.SaleRow(r), nil
	case core.CollectionExpenses:
		r, err := w.repo.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		return sheets.ExpenseRow(r), nil
	case core.CollectionOrders:
		r, err := w.repo.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return sheets.OrderRow(r), nil
	case core.CollectionDesigns:
		r, err := w.repo.GetDesign(ctx, id)
		if err != nil {
			return nil, err
		}
		return sheets.DesignRow(r), nil
	}
	return nil, fmt.Errorf("unknown collection %q", c)
}
