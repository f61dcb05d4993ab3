package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plazabi/internal/amqp"
	"plazabi/internal/core"
	"plazabi/internal/storage"
)

// BlobKey is where the record collection lives in the blob store. The name
// is part of the stored-data contract and must not change.
const BlobKey = "via_cristais_records"

var ErrRecordNotFound = errors.New("record not found")

// Store owns the record collection: it loads the blob once, keeps the
// normalized collection in memory, and writes the whole collection back on
// every mutation. Writes go to the blob first; event publishing is
// failure-tolerant and never blocks the caller's result.
type Store struct {
	blobs Blobs
	pub   Publisher

	now  func() time.Time
	seed func(now time.Time) []core.Record
	fare float64

	mu      sync.RWMutex
	records []core.Record // newest date first
}

// Option customizes a Store. Tests inject clocks and seed generators.
type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithSeed(seed func(now time.Time) []core.Record) Option {
	return func(s *Store) { s.seed = seed }
}

// WithFare overrides the unit toll price used to derive revenue on entry.
func WithFare(fare float64) Option {
	return func(s *Store) { s.fare = fare }
}

func NewStore(blobs Blobs, pub Publisher, opts ...Option) *Store {
	s := &Store{
		blobs: blobs,
		pub:   pub,
		now:   time.Now,
		fare:  core.UnitTollPrice,
	}
	s.seed = func(now time.Time) []core.Record {
		return core.GenerateSeed(rand.New(rand.NewSource(now.UnixNano())), now)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection from the blob store. A missing blob seeds the
// synthetic dataset and persists it so the next start finds real data. A
// corrupt blob is replaced the same way: the repaired collection is written
// back rather than left broken in storage.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.blobs.GetBlob(ctx, BlobKey)
	switch {
	case errors.Is(err, storage.ErrBlobNotFound):
		return s.seedAndPersist(ctx, "missing")
	case err != nil:
		return fmt.Errorf("load records blob: %w", err)
	}

	decoded, err := core.DecodeRawRecords([]byte(raw))
	if err != nil {
		slog.WarnContext(ctx, "Record blob is corrupt, reseeding", "error", err)
		return s.seedAndPersist(ctx, "corrupt")
	}

	records := core.NormalizeAll(decoded)
	sortByDateDesc(records)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	slog.InfoContext(ctx, "Loaded record collection", "count", len(records))
	return nil
}

func (s *Store) seedAndPersist(ctx context.Context, reason string) error {
	records := s.seed(s.now())
	sortByDateDesc(records)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return fmt.Errorf("persist seed collection: %w", err)
	}
	s.publish(ctx, amqp.ActionReloaded, "")

	slog.InfoContext(ctx, "Seeded record collection",
		"reason", reason, "count", len(records))
	return nil
}

// All returns a copy of the collection, newest date first.
func (s *Store) All() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns one record by id.
func (s *Store) Get(id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Record{}, ErrRecordNotFound
}

// Add normalizes and validates an incoming raw record, prepends it to the
// collection and persists. The record is assigned an id and creation
// timestamp when missing.
func (s *Store) Add(ctx context.Context, raw core.RawRecord) (core.Record, error) {
	r := core.Normalize(raw)
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt == "" {
		r.CreatedAt = s.now().Format(time.RFC3339)
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, err
	}
	// Revenue on the entry surface is always derived from transaction
	// counts; imported collections keep whatever they carry.
	if r.IsOperational() {
		r.DeriveRevenue(s.fare)
	}

	s.mu.Lock()
	s.records = append([]core.Record{r}, s.records...)
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return core.Record{}, err
	}
	s.publish(ctx, amqp.ActionCreated, r.ID)

	slog.InfoContext(ctx, "Record saved",
		"record_id", r.ID,
		"plaza", r.PlazaName,
		"category", string(r.Category),
		"date", r.Date)
	return r, nil
}

// Delete removes a record by id and persists the collection.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRecordNotFound
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return err
	}
	s.publish(ctx, amqp.ActionDeleted, id)

	slog.InfoContext(ctx, "Record deleted", "record_id", id)
	return nil
}

// ReplaceAll swaps the whole collection, normalizing every entry. Used by
// bulk import.
func (s *Store) ReplaceAll(ctx context.Context, raws []core.RawRecord) (int, error) {
	records := core.NormalizeAll(raws)
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("record %s: %w", r.ID, err)
		}
	}
	sortByDateDesc(records)

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.ActionReloaded, "")

	slog.InfoContext(ctx, "Record collection replaced", "count", len(records))
	return len(records), nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.RLock()
	payload, err := json.Marshal(s.records)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := s.blobs.PutBlob(ctx, BlobKey, string(payload)); err != nil {
		return fmt.Errorf("persist records: %w", err)
	}
	return nil
}

// publish is failure-tolerant: the record is already saved locally, so a
// broker problem is logged and swallowed.
func (s *Store) publish(ctx context.Context, action, recordID string) {
	if s.pub == nil {
		return
	}
	msg := amqp.NewRecordEventMessage(action, recordID)
	if err := s.pub.PublishRecordEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			"action", action, "record_id", recordID, "error", err)
	}
}

func sortByDateDesc(records []core.Record) {
	// ISO dates compare lexicographically, so string order is date order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
}
