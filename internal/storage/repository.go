package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"plazabi/internal/core"

	_ "modernc.org/sqlite"
)

// ErrBlobNotFound is returned when a blob key has never been written.
var ErrBlobNotFound = errors.New("blob not found")

// IndexEntry is the denormalized per-record row maintained in records_index.
// It exists for reporting queries; the blob collection stays the source of
// truth.
type IndexEntry struct {
	ID           string
	Date         string
	Plaza        string
	Segment      string
	Category     string
	IncidentType string
	Vehicles     int
	Revenue      float64
	Incidents    int
	CreatedAt    string
}

// IndexEntryFromRecord projects a canonical record onto its index row.
func IndexEntryFromRecord(r core.Record) IndexEntry {
	return IndexEntry{
		ID:           r.ID,
		Date:         r.Date,
		Plaza:        r.PlazaName,
		Segment:      string(r.Segment),
		Category:     string(r.Category),
		IncidentType: r.IncidentType,
		Vehicles:     r.TotalVehicles(),
		Revenue:      r.TotalRevenue(),
		Incidents:    r.Incidents,
		CreatedAt:    r.CreatedAt,
	}
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetBlob returns the stored value for a key, or ErrBlobNotFound.
func (r *SQLiteRepository) GetBlob(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBlobNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get blob %q: %w", key, err)
	}
	return value, nil
}

// PutBlob stores a value under a key, replacing any previous value.
func (r *SQLiteRepository) PutBlob(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put blob %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBlob(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// UpsertIndexEntry writes or refreshes one row in records_index.
func (r *SQLiteRepository) UpsertIndexEntry(ctx context.Context, e IndexEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO records_index
			(id, date, plaza, segment, category, incident_type, vehicles, revenue, incidents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			plaza = excluded.plaza,
			segment = excluded.segment,
			category = excluded.category,
			incident_type = excluded.incident_type,
			vehicles = excluded.vehicles,
			revenue = excluded.revenue,
			incidents = excluded.incidents,
			created_at = excluded.created_at`,
		e.ID, e.Date, e.Plaza, e.Segment, e.Category, e.IncidentType,
		e.Vehicles, e.Revenue, e.Incidents, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert index entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteIndexEntry(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records_index WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete index entry %s: %w", id, err)
	}
	return nil
}

// ListIndex returns index rows newest-date first, up to limit (0 = all).
func (r *SQLiteRepository) ListIndex(ctx context.Context, limit int) ([]IndexEntry, error) {
	query := `
		SELECT id, date, plaza, segment, category, incident_type, vehicles, revenue, incidents, created_at
		FROM records_index ORDER BY date DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list index: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.Plaza, &e.Segment, &e.Category,
			&e.IncidentType, &e.Vehicles, &e.Revenue, &e.Incidents, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan index entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index: %w", err)
	}
	return entries, nil
}

// CountIndex returns the number of indexed records.
func (r *SQLiteRepository) CountIndex(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records_index`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count index: %w", err)
	}
	return n, nil
}

// ListEmployees returns the full roster ordered by registration id.
func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, registration_id, name, role, plaza, gender, admission_date, status
		FROM employees ORDER BY registration_id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var employees []core.Employee
	for rows.Next() {
		var e core.Employee
		if err := rows.Scan(&e.ID, &e.RegistrationID, &e.Name, &e.Role,
			&e.Plaza, &e.Gender, &e.AdmissionDate, &e.Status); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	slog.DebugContext(ctx, "Loaded employee roster", "count", len(employees))
	return employees, nil
}
