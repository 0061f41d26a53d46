package archive

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tinytelemetry/lumen/internal/model"
)

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}

// RecentEntries returns the most recent entries matching opts in
// chronological order.
func (s *Store) RecentEntries(opts model.QueryOpts) ([]*model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var conditions []string
	var args []interface{}

	if opts.MinLevel != nil {
		conditions = append(conditions, "level_num >= ?")
		args = append(args, int(*opts.MinLevel))
	}
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.Contains != "" {
		conditions = append(conditions, "message ILIKE ?")
		args = append(args, "%"+opts.Contains+"%")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = model.DefaultHTTPLimit
	}

	innerQuery := "SELECT ts, seq, level_num, category, message, source FROM entries"
	if len(conditions) > 0 {
		innerQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	innerQuery += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	// Wrap so final results come back in ingestion (ASC) order.
	query := "SELECT * FROM (" + innerQuery + ") ORDER BY seq ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.Entry
	for rows.Next() {
		var e model.Entry
		var levelNum int
		if err := rows.Scan(&e.Time, &e.Seq, &levelNum, &e.Category, &e.Message, &e.Source); err != nil {
			log.Printf("archive: scan error (RecentEntries): %v", err)
			continue
		}
		e.Level = model.Level(levelNum)
		results = append(results, &e)
	}
	return results, rows.Err()
}

// TotalEntryCount returns the total number of archived entries.
func (s *Store) TotalEntryCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// LevelCounts returns the entry count per level, ordered by level.
func (s *Store) LevelCounts() ([]model.LevelCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT level_num, COUNT(*) FROM entries GROUP BY level_num ORDER BY level_num`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.LevelCount
	for rows.Next() {
		var levelNum int
		var count int64
		if err := rows.Scan(&levelNum, &count); err != nil {
			log.Printf("archive: scan error (LevelCounts): %v", err)
			continue
		}
		results = append(results, model.LevelCount{Level: model.Level(levelNum), Count: count})
	}
	return results, rows.Err()
}

// CountsByMinute returns per-minute level breakdowns for the most recent
// limit minutes, in ascending minute order.
func (s *Store) CountsByMinute(limit int) ([]model.MinuteCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	if limit <= 0 {
		limit = 60
	}

	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT date_trunc('minute', ts) as minute,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as trace,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as debug,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as info,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as warn,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as error,
				SUM(CASE WHEN level_num=%d THEN 1 ELSE 0 END) as fatal,
				COUNT(*) as total
			FROM entries
			GROUP BY minute ORDER BY minute DESC LIMIT ?
		) ORDER BY minute ASC`,
		model.LevelTrace, model.LevelDebug, model.LevelInfo,
		model.LevelWarn, model.LevelError, model.LevelFatal)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.MinuteCounts
	for rows.Next() {
		var mc model.MinuteCounts
		if err := rows.Scan(&mc.Minute, &mc.Trace, &mc.Debug, &mc.Info, &mc.Warn, &mc.Error, &mc.Fatal, &mc.Total); err != nil {
			log.Printf("archive: scan error (CountsByMinute): %v", err)
			continue
		}
		results = append(results, mc)
	}
	return results, rows.Err()
}

// Categories returns all distinct non-empty categories in the archive.
func (s *Store) Categories() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM entries WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			log.Printf("archive: scan error (Categories): %v", err)
			continue
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// DeleteBefore removes entries with timestamps older than cutoff and
// returns the number of rows deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return rows, nil
}
