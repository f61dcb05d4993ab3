package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"plazabi/internal/amqp"
	"plazabi/internal/core"
	"plazabi/internal/records"
	"plazabi/internal/storage"
)

// Blobs is the read side of the blob store the worker needs.
type Blobs interface {
	GetBlob(ctx context.Context, key string) (string, error)
}

// Index is the records_index surface maintained by the worker.
type Index interface {
	UpsertIndexEntry(ctx context.Context, e storage.IndexEntry) error
	DeleteIndexEntry(ctx context.Context, id string) error
	ListIndex(ctx context.Context, limit int) ([]storage.IndexEntry, error)
}

// IndexWorker keeps the records_index table in sync with the record blob.
// The blob stays the source of truth; the index is a queryable mirror
// rebuilt from it.
type IndexWorker struct {
	blobs Blobs
	index Index
}

func NewIndexWorker(blobs Blobs, index Index) *IndexWorker {
	return &IndexWorker{blobs: blobs, index: index}
}

// HandleRecordEvent processes a single record event from AMQP.
func (w *IndexWorker) HandleRecordEvent(ctx context.Context, msg *amqp.RecordEventMessage) error {
	switch msg.Action {
	case amqp.ActionCreated:
		return w.indexOne(ctx, msg.RecordID)
	case amqp.ActionDeleted:
		if err := w.index.DeleteIndexEntry(ctx, msg.RecordID); err != nil {
			return fmt.Errorf("delete index entry: %w", err)
		}
		slog.InfoContext(ctx, "Removed record from index", "record_id", msg.RecordID)
		return nil
	case amqp.ActionReloaded:
		return w.Backfill(ctx)
	default:
		slog.WarnContext(ctx, "Ignoring unknown record event", "action", msg.Action)
		return nil
	}
}

func (w *IndexWorker) indexOne(ctx context.Context, recordID string) error {
	collection, err := w.loadCollection(ctx)
	if err != nil {
		return err
	}
	for _, r := range collection {
		if r.ID == recordID {
			if err := w.index.UpsertIndexEntry(ctx, storage.IndexEntryFromRecord(r)); err != nil {
				return fmt.Errorf("upsert index entry: %w", err)
			}
			slog.InfoContext(ctx, "Indexed record",
				"record_id", r.ID, "plaza", r.PlazaName, "category", string(r.Category))
			return nil
		}
	}
	// The record may have been deleted between publish and consume. Not an
	// error worth requeueing.
	slog.WarnContext(ctx, "Record missing from collection, skipping", "record_id", recordID)
	return nil
}

// Backfill rebuilds the whole index from the blob: every record is upserted
// and rows for records that no longer exist are removed. Run at worker
// startup as the recovery path for lost messages.
func (w *IndexWorker) Backfill(ctx context.Context) error {
	collection, err := w.loadCollection(ctx)
	if err != nil {
		return err
	}

	alive := make(map[string]struct{}, len(collection))
	for _, r := range collection {
		if err := w.index.UpsertIndexEntry(ctx, storage.IndexEntryFromRecord(r)); err != nil {
			return fmt.Errorf("upsert during backfill: %w", err)
		}
		alive[r.ID] = struct{}{}
	}

	existing, err := w.index.ListIndex(ctx, 0)
	if err != nil {
		return fmt.Errorf("list index during backfill: %w", err)
	}
	removed := 0
	for _, e := range existing {
		if _, ok := alive[e.ID]; ok {
			continue
		}
		if err := w.index.DeleteIndexEntry(ctx, e.ID); err != nil {
			return fmt.Errorf("prune index entry %s: %w", e.ID, err)
		}
		removed++
	}

	slog.InfoContext(ctx, "Index backfill complete",
		"records", len(collection), "pruned", removed)
	return nil
}

func (w *IndexWorker) loadCollection(ctx context.Context) ([]core.Record, error) {
	raw, err := w.blobs.GetBlob(ctx, records.BlobKey)
	if errors.Is(err, storage.ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record blob: %w", err)
	}
	decoded, err := core.DecodeRawRecords([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode record blob: %w", err)
	}
	return core.NormalizeAll(decoded), nil
}
