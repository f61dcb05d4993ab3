package records

import (
	"context"
	"errors"
	"testing"
	"time"

	"plazabi/internal/amqp"
	"plazabi/internal/core"
	"plazabi/internal/storage"
)

type capturePublisher struct {
	messages []*amqp.RecordEventMessage
	err      error
}

func (p *capturePublisher) PublishRecordEvent(_ context.Context, msg *amqp.RecordEventMessage) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func fixedClock() time.Time {
	return time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC)
}

func testSeed(now time.Time) []core.Record {
	return []core.Record{
		{ID: "seed-1", Date: now.Format(core.DateLayout), PlazaName: "PP1", Segment: core.SegmentNorte, Category: core.CategoryOperational, LightVehicles: 10},
	}
}

func newTestStore(t *testing.T, pub Publisher) (*Store, *storage.MemoryStore) {
	t.Helper()
	blobs := storage.NewMemoryStore()
	s := NewStore(blobs, pub, WithClock(fixedClock), WithSeed(testSeed))
	return s, blobs
}

func TestLoadSeedsWhenBlobMissing(t *testing.T) {
	pub := &capturePublisher{}
	s, blobs := newTestStore(t, pub)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.All(); len(got) != 1 || got[0].ID != "seed-1" {
		t.Fatalf("seeded collection = %+v", got)
	}

	// Seed must be persisted so the next start finds data.
	raw, err := blobs.GetBlob(ctx, BlobKey)
	if err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
	if raw == "" || raw == "null" {
		t.Fatalf("persisted payload = %q", raw)
	}
	if len(pub.messages) != 1 || pub.messages[0].Action != amqp.ActionReloaded {
		t.Errorf("events = %+v, want single reloaded", pub.messages)
	}
}

func TestLoadReseedsOnCorruptBlob(t *testing.T) {
	s, blobs := newTestStore(t, nil)
	ctx := context.Background()

	if err := blobs.PutBlob(ctx, BlobKey, "{not json"); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.All(); len(got) != 1 || got[0].ID != "seed-1" {
		t.Fatalf("collection after corrupt blob = %+v", got)
	}

	// The repaired collection replaces the corrupt payload in storage.
	raw, _ := blobs.GetBlob(ctx, BlobKey)
	if _, err := core.DecodeRawRecords([]byte(raw)); err != nil {
		t.Fatalf("persisted payload still corrupt: %v", err)
	}
}

func TestLoadNormalizesStoredConventions(t *testing.T) {
	s, blobs := newTestStore(t, nil)
	ctx := context.Background()

	blob := `[
		{"id":"a","date":"2025-01-02","plaza_name":"PP2","light_vehicles":"30"},
		{"id":"b","date":"2025-01-05","plazaName":"PP1","lightVehicles":10}
	]`
	if err := blobs.PutBlob(ctx, BlobKey, blob); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := s.All()
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID != "b" {
		t.Errorf("newest first, got %s", got[0].ID)
	}
	if got[1].LightVehicles != 30 || got[1].PlazaName != "PP2" {
		t.Errorf("snake_case record not normalized: %+v", got[1])
	}
}

func TestLoadKeepsEmptyCollection(t *testing.T) {
	s, blobs := newTestStore(t, nil)
	ctx := context.Background()

	if err := blobs.PutBlob(ctx, BlobKey, "[]"); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	// An empty collection is valid data, not a reason to reseed.
	if got := s.All(); len(got) != 0 {
		t.Fatalf("collection = %+v, want empty", got)
	}
}

func TestAddAssignsIdentityAndPersists(t *testing.T) {
	pub := &capturePublisher{}
	s, blobs := newTestStore(t, pub)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	plaza := "PP3"
	r, err := s.Add(ctx, core.RawRecord{Date: "2025-12-14", PlazaName: &plaza, LightVehicles: &core.FlexNumber{Value: 42, Set: true}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if r.ID == "" || r.CreatedAt == "" {
		t.Errorf("identity not assigned: %+v", r)
	}
	if r.Segment != core.SegmentNorte {
		t.Errorf("segment = %q", r.Segment)
	}

	got := s.All()
	if got[0].ID != r.ID {
		t.Errorf("new record not first: %+v", got[0])
	}

	raw, _ := blobs.GetBlob(ctx, BlobKey)
	decoded, err := core.DecodeRawRecords([]byte(raw))
	if err != nil || len(decoded) != 2 {
		t.Fatalf("persisted collection = %d records, %v", len(decoded), err)
	}

	last := pub.messages[len(pub.messages)-1]
	if last.Action != amqp.ActionCreated || last.RecordID != r.ID {
		t.Errorf("event = %+v", last)
	}
}

func TestAddDerivesOperationalRevenue(t *testing.T) {
	blobs := storage.NewMemoryStore()
	s := NewStore(blobs, nil, WithClock(fixedClock), WithSeed(testSeed), WithFare(10))
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	plaza := "PP2"
	r, err := s.Add(ctx, core.RawRecord{
		Date:      "2025-12-14",
		PlazaName: &plaza,
		TxCash:    &core.FlexNumber{Value: 3, Set: true},
		TxPix:     &core.FlexNumber{Value: 1, Set: true},
		TxCard:    &core.FlexNumber{Value: 2, Set: true},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if r.RevenueCash != 30 {
		t.Errorf("RevenueCash = %v, want 30", r.RevenueCash)
	}
	if r.RevenueElectronic != 30 {
		t.Errorf("RevenueElectronic = %v, want 30", r.RevenueElectronic)
	}
}

func TestAddRejectsInvalidRecord(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	plaza := "PP1"
	if _, err := s.Add(ctx, core.RawRecord{PlazaName: &plaza}); err == nil {
		t.Error("expected error for record without date")
	}
	if got := s.All(); len(got) != 1 {
		t.Errorf("rejected record must not be kept, len = %d", len(got))
	}
}

func TestAddToleratesPublishFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	s, _ := newTestStore(t, pub)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	plaza := "PP1"
	if _, err := s.Add(ctx, core.RawRecord{Date: "2025-12-14", PlazaName: &plaza}); err != nil {
		t.Fatalf("add must succeed when only publish fails: %v", err)
	}
}

func TestDelete(t *testing.T) {
	pub := &capturePublisher{}
	s, _ := newTestStore(t, pub)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "seed-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.All(); len(got) != 0 {
		t.Errorf("collection after delete = %+v", got)
	}
	last := pub.messages[len(pub.messages)-1]
	if last.Action != amqp.ActionDeleted || last.RecordID != "seed-1" {
		t.Errorf("event = %+v", last)
	}

	if err := s.Delete(ctx, "nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
}

func TestReplaceAll(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	p1, p2 := "PP1", "PP6"
	n, err := s.ReplaceAll(ctx, []core.RawRecord{
		{ID: "a", Date: "2025-03-01", PlazaName: &p1},
		{ID: "b", Date: "2025-03-02", PlazaName: &p2},
	})
	if err != nil || n != 2 {
		t.Fatalf("replace = %d, %v", n, err)
	}
	got := s.All()
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("collection = %+v", got)
	}
}
