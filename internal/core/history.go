package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversionRecord describes one completed export.
type ConversionRecord struct {
	ID          string    `json:"id"`
	SourceName  string    `json:"sourceName"`
	Rows        int       `json:"rows"`
	Encoding    string    `json:"encoding"`
	Bytes       int       `json:"bytes"`
	Destination string    `json:"destination,omitempty"`
	ClientIP    string    `json:"clientIp,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryStore keeps a log of completed exports.
type HistoryStore interface {
	Record(ctx context.Context, rec ConversionRecord) error
	List(ctx context.Context, limit int) ([]ConversionRecord, error)
}

// DefaultHistoryLimit caps history listings when the caller passes no limit.
const DefaultHistoryLimit = 50

func newRecordID() string {
	return uuid.New().String()
}

// ============================================================================
// PostgreSQL
// ============================================================================

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS conversion_history (
	id          UUID PRIMARY KEY,
	source_name TEXT NOT NULL DEFAULT '',
	row_count   INTEGER NOT NULL,
	encoding    TEXT NOT NULL,
	bytes       INTEGER NOT NULL,
	destination TEXT NOT NULL DEFAULT '',
	client_ip   TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgHistory stores conversion history in PostgreSQL.
type PgHistory struct {
	pool *pgxpool.Pool
}

// NewPgHistory creates a PostgreSQL-backed history store.
func NewPgHistory(pool *pgxpool.Pool) *PgHistory {
	return &PgHistory{pool: pool}
}

// EnsureSchema creates the history table if it does not exist.
func (h *PgHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.pool.Exec(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("create conversion_history: %w", err)
	}
	return nil
}

// Record inserts rec. Empty ID and CreatedAt are filled in.
func (h *PgHistory) Record(ctx context.Context, rec ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = newRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	uid, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("invalid record ID: %w", err)
	}

	_, err = h.pool.Exec(ctx,
		`INSERT INTO conversion_history (id, source_name, row_count, encoding, bytes, destination, client_ip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		pgtype.UUID{Bytes: uid, Valid: true}, rec.SourceName, rec.Rows, rec.Encoding, rec.Bytes, rec.Destination, rec.ClientIP, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert conversion record: %w", err)
	}
	return nil
}

// List returns the most recent records first.
func (h *PgHistory) List(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := h.pool.Query(ctx,
		`SELECT id, source_name, row_count, encoding, bytes, destination, client_ip, created_at
		 FROM conversion_history
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversion history: %w", err)
	}
	defer rows.Close()

	var records []ConversionRecord
	for rows.Next() {
		var (
			rec ConversionRecord
			id  pgtype.UUID
		)
		if err := rows.Scan(&id, &rec.SourceName, &rec.Rows, &rec.Encoding, &rec.Bytes, &rec.Destination, &rec.ClientIP, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion record: %w", err)
		}
		rec.ID = uuid.UUID(id.Bytes).String()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversion history: %w", err)
	}

	return records, nil
}

// ============================================================================
// In-memory
// ============================================================================

// MemoryHistory keeps the most recent records in process memory.
// Used when no database is configured.
type MemoryHistory struct {
	mu       sync.Mutex
	records  []ConversionRecord
	capacity int
}

// NewMemoryHistory keeps at most capacity records (DefaultHistoryLimit if <= 0).
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &MemoryHistory{capacity: capacity}
}

// Record appends rec, evicting the oldest entry when full.
func (h *MemoryHistory) Record(_ context.Context, rec ConversionRecord) error {
	if rec.ID == "" {
		rec.ID = newRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, rec)
	if len(h.records) > h.capacity {
		h.records = h.records[len(h.records)-h.capacity:]
	}
	return nil
}

// List returns the most recent records first.
func (h *MemoryHistory) List(_ context.Context, limit int) ([]ConversionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	result := make([]ConversionRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, h.records[i])
	}
	return result, nil
}
