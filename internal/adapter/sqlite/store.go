// Package sqlite stores verification records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-track-verify/internal/domain"
)

// Store writes records to SQLite. It implements pipeline.RecordLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			record_key TEXT NOT NULL,
			processed_at TEXT NOT NULL,
			payload TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pair_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			storm_id TEXT NOT NULL,
			adeck TEXT NOT NULL,
			bdeck TEXT NOT NULL,
			init TEXT NOT NULL,
			valid TEXT NOT NULL,
			lead_hours REAL NOT NULL,
			tk_err REAL,
			altk_err REAL,
			crtk_err REAL,
			vmax_err REAL,
			mslp_err REAL
		);

		CREATE INDEX IF NOT EXISTS idx_records_run_kind ON records(run_id, kind);
		CREATE INDEX IF NOT EXISTS idx_pair_points_run ON pair_points(run_id, adeck, lead_hours);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadBatch inserts records in one transaction. Pair point records are
// also written to the pair_points table for error summaries.
func (s *Store) LoadBatch(ctx context.Context, records []domain.Record) (err error) {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insRecord, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, kind, record_key, processed_at, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare record insert: %w", err)
	}
	defer insRecord.Close()

	insPoint, err := tx.PrepareContext(ctx,
		`INSERT INTO pair_points (run_id, storm_id, adeck, bdeck, init, valid, lead_hours,
			tk_err, altk_err, crtk_err, vmax_err, mslp_err)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare pair point insert: %w", err)
	}
	defer insPoint.Close()

	for _, rec := range records {
		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("serialize %s record: %w", rec.Kind, err)
		}
		if _, err := insRecord.ExecContext(ctx, rec.RunID, string(rec.Kind), rec.Key,
			rec.ProcessedAt.UTC().Format(time.RFC3339Nano), string(payload)); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Key, err)
		}

		pp, ok := rec.Payload.(domain.PairPointRecord)
		if !ok {
			continue
		}
		if _, err := insPoint.ExecContext(ctx, pp.RunID, pp.StormID, pp.ADeck, pp.BDeck,
			pp.Init.UTC().Format(time.RFC3339), pp.Valid.UTC().Format(time.RFC3339), pp.LeadHours,
			pp.TrackErr, pp.AlongErr, pp.CrossErr, pp.VMaxErr, pp.MSLPErr); err != nil {
			return fmt.Errorf("insert pair point %s: %w", rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("records stored", "count", len(records))
	return nil
}

// CountRecords returns the number of stored records per kind for a run.
func (s *Store) CountRecords(ctx context.Context, runID string) (map[domain.RecordKind]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM records WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.RecordKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan record count: %w", err)
		}
		out[domain.RecordKind(kind)] = n
	}
	return out, rows.Err()
}

// ErrorSummary aggregates pair point errors for one technique and lead.
type ErrorSummary struct {
	ADeck        string
	LeadHours    float64
	Count        int
	MeanTrackErr *float64
	MeanVMaxErr  *float64
	MeanMSLPErr  *float64
}

// SummarizeErrors returns mean errors by technique and lead time for a
// run, ordered by technique then lead. Missing errors are ignored by the
// averages.
func (s *Store) SummarizeErrors(ctx context.Context, runID string) ([]ErrorSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT adeck, lead_hours, COUNT(*), AVG(tk_err), AVG(vmax_err), AVG(mslp_err)
		FROM pair_points
		WHERE run_id = ?
		GROUP BY adeck, lead_hours
		ORDER BY adeck, lead_hours`, runID)
	if err != nil {
		return nil, fmt.Errorf("summarize errors: %w", err)
	}
	defer rows.Close()

	var out []ErrorSummary
	for rows.Next() {
		var es ErrorSummary
		var tk, vmax, mslp sql.NullFloat64
		if err := rows.Scan(&es.ADeck, &es.LeadHours, &es.Count, &tk, &vmax, &mslp); err != nil {
			return nil, fmt.Errorf("scan error summary: %w", err)
		}
		es.MeanTrackErr = nullable(tk)
		es.MeanVMaxErr = nullable(vmax)
		es.MeanMSLPErr = nullable(mslp)
		out = append(out, es)
	}
	return out, rows.Err()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

// Ping checks the database connection. It satisfies the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
