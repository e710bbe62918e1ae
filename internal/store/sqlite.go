package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "pinstock/internal/errors"
	"pinstock/internal/models"
)

// SQLiteStore implements StatusStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based status store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Concurrent distinct-key writes from the worker pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Last-known status per (product, pincode, platform)
	CREATE TABLE IF NOT EXISTS status_records (
		target_key TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		pincode TEXT NOT NULL,
		platform TEXT NOT NULL,
		status TEXT NOT NULL,
		price REAL,
		observed_at DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_status_product ON status_records(product_id);
	CREATE INDEX IF NOT EXISTS idx_status_pincode ON status_records(pincode);
	CREATE INDEX IF NOT EXISTS idx_status_platform ON status_records(platform);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get returns the record for a target key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (models.StatusRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT target_key, product_id, pincode, platform, status, price, observed_at
		FROM status_records WHERE target_key = ?`, key)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return models.StatusRecord{}, apperrors.ErrRecordNotFound
	}
	if err != nil {
		return models.StatusRecord{}, fmt.Errorf("querying status record: %w", err)
	}
	return record, nil
}

// Put upserts the record for its target key.
func (s *SQLiteStore) Put(ctx context.Context, record models.StatusRecord) error {
	var price interface{}
	if record.Price != nil {
		price = *record.Price
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_records (target_key, product_id, pincode, platform, status, price, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(target_key) DO UPDATE SET
			status = excluded.status,
			price = excluded.price,
			observed_at = excluded.observed_at,
			updated_at = CURRENT_TIMESTAMP`,
		record.TargetKey, record.ProductID, record.Pincode, string(record.Platform),
		record.Status.String(), price, record.ObservedAt)
	if err != nil {
		return fmt.Errorf("saving status record: %w", err)
	}
	return nil
}

// LoadAll returns every persisted record, keyed by target key.
func (s *SQLiteStore) LoadAll(ctx context.Context) (map[string]models.StatusRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_key, product_id, pincode, platform, status, price, observed_at
		FROM status_records`)
	if err != nil {
		return nil, fmt.Errorf("loading status records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.StatusRecord)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning status record: %w", err)
		}
		records[record.TargetKey] = record
	}

	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (models.StatusRecord, error) {
	var record models.StatusRecord
	var platform, status string
	var price sql.NullFloat64

	err := sc.Scan(&record.TargetKey, &record.ProductID, &record.Pincode,
		&platform, &status, &price, &record.ObservedAt)
	if err != nil {
		return models.StatusRecord{}, err
	}

	record.Platform = models.Platform(platform)
	record.Status = models.ParseStockStatus(status)
	if price.Valid {
		record.Price = &price.Float64
	}
	return record, nil
}
