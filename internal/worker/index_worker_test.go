package worker

import (
	"context"
	"encoding/json"
	"testing"

	"plazabi/internal/amqp"
	"plazabi/internal/core"
	"plazabi/internal/records"
	"plazabi/internal/storage"
)

type fakeIndex struct {
	entries map[string]storage.IndexEntry
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: map[string]storage.IndexEntry{}}
}

func (f *fakeIndex) UpsertIndexEntry(_ context.Context, e storage.IndexEntry) error {
	f.entries[e.ID] = e
	return nil
}

func (f *fakeIndex) DeleteIndexEntry(_ context.Context, id string) error {
	delete(f.entries, id)
	return nil
}

func (f *fakeIndex) ListIndex(_ context.Context, _ int) ([]storage.IndexEntry, error) {
	out := make([]storage.IndexEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func putCollection(t *testing.T, blobs *storage.MemoryStore, recs []core.Record) {
	t.Helper()
	payload, err := json.Marshal(recs)
	if err != nil {
		t.Fatal(err)
	}
	if err := blobs.PutBlob(context.Background(), records.BlobKey, string(payload)); err != nil {
		t.Fatal(err)
	}
}

func TestHandleCreatedIndexesRecord(t *testing.T) {
	blobs := storage.NewMemoryStore()
	index := newFakeIndex()
	w := NewIndexWorker(blobs, index)
	ctx := context.Background()

	putCollection(t, blobs, []core.Record{
		{ID: "r1", Date: "2025-12-01", PlazaName: "PP1", Segment: core.SegmentNorte, Category: core.CategoryOperational, LightVehicles: 10, HeavyVehicles: 2},
	})

	if err := w.HandleRecordEvent(ctx, amqp.NewRecordEventMessage(amqp.ActionCreated, "r1")); err != nil {
		t.Fatalf("handle created: %v", err)
	}
	e, ok := index.entries["r1"]
	if !ok {
		t.Fatal("record not indexed")
	}
	if e.Vehicles != 12 || e.Plaza != "PP1" || e.Category != "operational" {
		t.Errorf("entry = %+v", e)
	}
}

func TestHandleCreatedMissingRecordIsNotAnError(t *testing.T) {
	blobs := storage.NewMemoryStore()
	w := NewIndexWorker(blobs, newFakeIndex())

	putCollection(t, blobs, nil)
	if err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEventMessage(amqp.ActionCreated, "ghost")); err != nil {
		t.Fatalf("missing record must not requeue: %v", err)
	}
}

func TestHandleDeleted(t *testing.T) {
	index := newFakeIndex()
	index.entries["r1"] = storage.IndexEntry{ID: "r1"}
	w := NewIndexWorker(storage.NewMemoryStore(), index)

	if err := w.HandleRecordEvent(context.Background(), amqp.NewRecordEventMessage(amqp.ActionDeleted, "r1")); err != nil {
		t.Fatalf("handle deleted: %v", err)
	}
	if _, ok := index.entries["r1"]; ok {
		t.Error("entry still present after delete")
	}
}

func TestBackfillUpsertsAndPrunes(t *testing.T) {
	blobs := storage.NewMemoryStore()
	index := newFakeIndex()
	index.entries["stale"] = storage.IndexEntry{ID: "stale"}
	w := NewIndexWorker(blobs, index)
	ctx := context.Background()

	putCollection(t, blobs, []core.Record{
		{ID: "a", Date: "2025-12-01", PlazaName: "PP1", Segment: core.SegmentNorte, Category: core.CategoryOperational},
		{ID: "b", Date: "2025-12-02", PlazaName: "PP6", Segment: core.SegmentSul, Category: core.CategorySafety, Incidents: 1, Observations: "x"},
	})

	if err := w.HandleRecordEvent(ctx, amqp.NewRecordEventMessage(amqp.ActionReloaded, "")); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if len(index.entries) != 2 {
		t.Fatalf("index size = %d, want 2", len(index.entries))
	}
	if _, ok := index.entries["stale"]; ok {
		t.Error("stale entry not pruned")
	}
	if index.entries["b"].Incidents != 1 {
		t.Errorf("safety entry = %+v", index.entries["b"])
	}
}

func TestBackfillWithNoBlob(t *testing.T) {
	w := NewIndexWorker(storage.NewMemoryStore(), newFakeIndex())
	if err := w.Backfill(context.Background()); err != nil {
		t.Fatalf("backfill on empty store: %v", err)
	}
}
