package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// tsLayout is fixed width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

const runColumns = `id, mode, input, total_minutes, target_minute, started_at, ended_at, status, by_watchdog`

// StartRun logs a countdown that just began.
func (s *Store) StartRun(mode, input string, totalMinutes float64, target *float64, startedAt time.Time) (*Run, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (mode, input, total_minutes, target_minute, started_at, status) VALUES (?, ?, ?, ?, ?, 'running')`,
		mode, input, totalMinutes, target, startedAt.UTC().Format(tsLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetRun(id)
}

// FinishRun closes a running run. Finishing a run twice is an error so a
// late duplicate completion never overwrites the first outcome.
func (s *Store) FinishRun(id int64, status RunStatus, endedAt time.Time, byWatchdog bool) (*Run, error) {
	if status != RunCompleted && status != RunCancelled {
		return nil, fmt.Errorf("finish run %d: invalid status %q", id, status)
	}
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, ended_at = ?, by_watchdog = ? WHERE id = ? AND status = 'running'`,
		string(status), endedAt.UTC().Format(tsLayout), byWatchdog, id,
	)
	if err != nil {
		return nil, fmt.Errorf("finish run %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("finish run %d: %w", id, ErrNotFound)
	}
	return s.GetRun(id)
}

// CancelDanglingRuns closes runs a previous session left open. Timers are
// not resumed across sessions, so they count as cancelled at their start.
func (s *Store) CancelDanglingRuns() (int64, error) {
	res, err := s.db.Exec(
		`UPDATE runs SET status = 'cancelled', ended_at = started_at WHERE status = 'running'`,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel dangling runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %d: %w", id, err)
	}
	return r, nil
}

func (s *Store) ListRuns(f RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, f.From.UTC().Format(tsLayout))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, f.To.UTC().Format(tsLayout))
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetDailyTotals sums finished runs per UTC day in [from, to). Minutes are
// the time each run actually covered, so a cancelled run counts what it ran.
func (s *Store) GetDailyTotals(from, to time.Time) ([]DailyTotal, error) {
	runs, err := s.ListRuns(RunFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	byDay := map[string]*DailyTotal{}
	var order []string
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		if r.Status == RunRunning {
			continue
		}
		day := r.StartedAt.UTC().Format("2006-01-02")
		dt, ok := byDay[day]
		if !ok {
			dt = &DailyTotal{Date: day}
			byDay[day] = dt
			order = append(order, day)
		}
		dt.Minutes += r.Elapsed().Minutes()
		if r.Status == RunCompleted {
			dt.Completed++
		} else {
			dt.Cancelled++
		}
	}

	totals := make([]DailyTotal, 0, len(order))
	for _, day := range order {
		totals = append(totals, *byDay[day])
	}
	return totals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	r := &Run{}
	var startedAt, status string
	var endedAt sql.NullString
	var target sql.NullFloat64
	if err := sc.Scan(&r.ID, &r.Mode, &r.Input, &r.TotalMinutes, &target, &startedAt, &endedAt, &status, &r.ByWatchdog); err != nil {
		return nil, err
	}
	r.Status = RunStatus(status)
	if target.Valid {
		r.TargetMinute = &target.Float64
	}
	r.StartedAt, _ = time.Parse(tsLayout, startedAt)
	if endedAt.Valid {
		t, _ := time.Parse(tsLayout, endedAt.String)
		r.EndedAt = &t
	}
	return r, nil
}
