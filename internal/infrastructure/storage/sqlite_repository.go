package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS ads (
    ad_archive_id TEXT PRIMARY KEY,
    page_id       TEXT NOT NULL DEFAULT '',
    page_name     TEXT NOT NULL DEFAULT '',
    query         TEXT NOT NULL DEFAULT '',
    spend_avg     REAL,
    impressions_avg REAL,
    currency      TEXT NOT NULL DEFAULT '',
    start_date    TEXT NOT NULL DEFAULT '',
    end_date      TEXT NOT NULL DEFAULT '',
    raw           TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS classifications (
    ad_archive_id TEXT PRIMARY KEY,
    status        TEXT NOT NULL,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteRepository persists scraped ads and classification progress.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.AdRepository = (*SQLiteRepository)(nil)

// NewSQLiteRepository wires a sql.DB implementation.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Open opens (creating if needed) the database at dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return NewSQLiteRepository(db), nil
}

// Close releases the underlying database.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveAds inserts ads not stored yet. An ad already present keeps its first
// stored version. Returns the number of new rows.
func (r *SQLiteRepository) SaveAds(ctx context.Context, ads []domain.Ad) (int, error) {
	if r.db == nil || len(ads) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	inserted := 0
	for _, ad := range ads {
		if ad.ArchiveID == "" {
			continue
		}
		raw, err := json.Marshal(ad.Raw)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("marshal ad %s: %w", ad.ArchiveID, err)
		}

		query, args, err := sq.Insert("ads").
			Options("OR IGNORE").
			Columns("ad_archive_id", "page_id", "page_name", "query",
				"spend_avg", "impressions_avg", "currency", "start_date", "end_date", "raw").
			Values(ad.ArchiveID, ad.PageID, ad.PageName, ad.Query,
				average(ad.Spend), average(ad.Impressions), ad.Currency, ad.StartDate, ad.EndDate, string(raw)).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert ad %s: %w", ad.ArchiveID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// AlreadyClassified returns a map with IDs that have a successful classification.
func (r *SQLiteRepository) AlreadyClassified(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := sq.Select("ad_archive_id").
		From("classifications").
		Where(sq.Eq{"ad_archive_id": ids, "status": string(domain.StatusClassified)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query classified: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// MarkClassified upserts the classification status of an ad.
func (r *SQLiteRepository) MarkClassified(ctx context.Context, id string, status domain.ClassificationStatus) error {
	if r.db == nil {
		return nil
	}

	query, args, err := sq.Insert("classifications").
		Columns("ad_archive_id", "status").
		Values(id, string(status)).
		Suffix("ON CONFLICT (ad_archive_id) DO UPDATE SET status = excluded.status, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert classification: %w", err)
	}

	return nil
}

func average(b *domain.Bounds) any {
	if b == nil {
		return nil
	}
	return b.Average
}
