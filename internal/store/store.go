// Package store handles SQLite persistence of aggregated lot statistics.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/towstat/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for daily stats, category counts and the
// oldest-vehicles table.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_stats (
			date TEXT NOT NULL,
			category TEXT NOT NULL,
			dirtbike INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			average REAL NOT NULL,
			median_age REAL NOT NULL,
			PRIMARY KEY (date, category, dirtbike)
		);`,
		`CREATE TABLE IF NOT EXISTS category_counts (
			code TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			with_dirtbikes INTEGER NOT NULL,
			without_dirtbikes INTEGER NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS oldest_vehicles (
			property_number TEXT PRIMARY KEY,
			received_on TEXT NOT NULL,
			age_days INTEGER NOT NULL,
			category TEXT NOT NULL,
			property_type TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_daily_stats_date ON daily_stats(date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertDailyStats inserts daily stats, replacing rows that share the same
// date, category and dirtbike flag.
func (s *Store) UpsertDailyStats(ctx context.Context, stats []model.DailyStat) (err error) {
	if len(stats) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily_stats (date, category, dirtbike, quantity, average, median_age)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (date, category, dirtbike) DO UPDATE SET
			quantity = excluded.quantity,
			average = excluded.average,
			median_age = excluded.median_age`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, st := range stats {
		if _, err = stmt.ExecContext(ctx,
			st.Date.Format(model.DateLayout),
			st.Category,
			boolToInt(st.IncludesDirtbikes),
			st.Quantity,
			st.AverageAge,
			st.MedianAge,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListDailyStats returns daily stats ordered by date, optionally bounded by
// inclusive from/to dates.
func (s *Store) ListDailyStats(ctx context.Context, from, to *time.Time) ([]model.DailyStat, error) {
	clauses, args := dateClauses(from, to)
	query := fmt.Sprintf(`SELECT date, category, dirtbike, quantity, average, median_age
		FROM daily_stats
		WHERE %s
		ORDER BY date ASC, category ASC, dirtbike DESC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DailyStat
	for rows.Next() {
		var st model.DailyStat
		var date string
		var dirtbike int
		if err := rows.Scan(&date, &st.Category, &dirtbike, &st.Quantity, &st.AverageAge, &st.MedianAge); err != nil {
			return nil, err
		}
		parsed, err := model.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		st.Date = parsed
		st.IncludesDirtbikes = dirtbike != 0
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListDates returns the distinct dates that already have stats, optionally
// bounded by inclusive from/to dates.
func (s *Store) ListDates(ctx context.Context, from, to *time.Time) (map[time.Time]struct{}, error) {
	clauses, args := dateClauses(from, to)
	query := fmt.Sprintf(`SELECT DISTINCT date FROM daily_stats WHERE %s`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[time.Time]struct{}{}
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		parsed, err := model.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		result[parsed] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceCategories swaps the stored category counts for the given rows,
// keeping their order.
func (s *Store) ReplaceCategories(ctx context.Context, records []model.CategoryRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM category_counts`); err != nil {
		return err
	}
	for i, rec := range records {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO category_counts (code, label, with_dirtbikes, without_dirtbikes, position)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.Code, rec.Label, rec.QuantityWithDirtbikes, rec.QuantityWithoutDirtbikes, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListCategories returns the stored category counts in their saved order.
func (s *Store) ListCategories(ctx context.Context) ([]model.CategoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, label, with_dirtbikes, without_dirtbikes
		FROM category_counts
		ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CategoryRecord
	for rows.Next() {
		var rec model.CategoryRecord
		if err := rows.Scan(&rec.Code, &rec.Label, &rec.QuantityWithDirtbikes, &rec.QuantityWithoutDirtbikes); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceOldest swaps the stored oldest-vehicles table for the given rows.
func (s *Store) ReplaceOldest(ctx context.Context, vehicles []model.OldestVehicle) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM oldest_vehicles`); err != nil {
		return err
	}
	for i, v := range vehicles {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO oldest_vehicles (property_number, received_on, age_days, category, property_type, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			v.PropertyNumber, v.ReceivedOn.Format(model.DateLayout), v.AgeDays, v.Category, v.PropertyType, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListOldest returns the stored oldest-vehicles table in saved order.
func (s *Store) ListOldest(ctx context.Context) ([]model.OldestVehicle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT property_number, received_on, age_days, category, property_type
		FROM oldest_vehicles
		ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.OldestVehicle
	for rows.Next() {
		var v model.OldestVehicle
		var received string
		if err := rows.Scan(&v.PropertyNumber, &received, &v.AgeDays, &v.Category, &v.PropertyType); err != nil {
			return nil, err
		}
		parsed, err := model.ParseDate(received)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", received, err)
		}
		v.ReceivedOn = parsed
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func dateClauses(from, to *time.Time) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if from != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, from.Format(model.DateLayout))
	}
	if to != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, to.Format(model.DateLayout))
	}
	return clauses, args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
