package postgres

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS product_snapshots (
	doc_id            TEXT PRIMARY KEY,
	title             TEXT,
	price             TEXT,
	brand             TEXT,
	image             TEXT,
	description       TEXT,
	url               TEXT NOT NULL,
	extraction_method TEXT NOT NULL,
	error             TEXT,
	saved_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Package-level compiled regex patterns for performance
var (
	docIDCharsRegex = regexp.MustCompile(`[^A-Za-z0-9_]`)
	dpSegmentRegex  = regexp.MustCompile(`/dp/([^/?#]+)`)
)

// SnapshotStore persists extracted product records in Postgres. Persistence
// is best-effort: the orchestrator logs save errors and moves on.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore connects to Postgres and ensures the snapshot table exists
func NewSnapshotStore(ctx context.Context, dsn string) (*SnapshotStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snapshots table: %w", err)
	}

	return &SnapshotStore{pool: pool}, nil
}

// Save inserts a snapshot of the record and returns its document ID
func (s *SnapshotStore) Save(ctx context.Context, record domain.ProductRecord) (string, error) {
	docID := DocID(record, time.Now())

	_, err := s.pool.Exec(ctx,
		`INSERT INTO product_snapshots
			(doc_id, title, price, brand, image, description, url, extraction_method, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (doc_id) DO NOTHING`,
		docID, record.Title, record.Price, record.Brand, record.Image,
		record.Description, record.URL, record.ExtractionMethod, nullable(record.Error),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	log.Printf("[STORE] Saved product snapshot %s", docID)
	return docID, nil
}

// Recent returns the most recently saved snapshots, newest first
func (s *SnapshotStore) Recent(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT doc_id, title, price, brand, image, description, url, extraction_method, COALESCE(error, ''), saved_at
		 FROM product_snapshots
		 ORDER BY saved_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(
			&snap.DocID,
			&snap.Record.Title, &snap.Record.Price, &snap.Record.Brand,
			&snap.Record.Image, &snap.Record.Description,
			&snap.Record.URL, &snap.Record.ExtractionMethod, &snap.Record.Error,
			&snap.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// Close releases the connection pool
func (s *SnapshotStore) Close() {
	s.pool.Close()
}

// DocID derives a stable, human-readable document ID for a record: a slug of
// the title when present, else the marketplace product ID from a /dp/ URL
// segment, else a short random ID; always suffixed with a timestamp so
// repeated scrapes of the same product stay distinct.
func DocID(record domain.ProductRecord, now time.Time) string {
	var base string

	if record.Title != nil && *record.Title != "" {
		slug := strings.ReplaceAll(*record.Title, " ", "_")
		slug = strings.ReplaceAll(slug, "-", "_")
		slug = docIDCharsRegex.ReplaceAllString(slug, "")
		if len(slug) > 50 {
			slug = slug[:50]
		}
		base = slug
	}

	if base == "" {
		if m := dpSegmentRegex.FindStringSubmatch(record.URL); m != nil {
			base = m[1]
		}
	}

	if base == "" {
		base = uuid.NewString()[:8]
	}

	return fmt.Sprintf("%s_%s", base, now.Format("20060102_150405"))
}

// nullable maps an empty string to SQL NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
