// Package store provides a SQLite-backed journal of generated insights.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded insight or answer.
type Entry struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Dataset   string        `json:"dataset"`
	Rows      int           `json:"rows"`
	Columns   int           `json:"columns"`
	Mode      string        `json:"mode"`
	Model     string        `json:"model"`
	Question  string        `json:"question,omitempty"`
	Answer    string        `json:"answer"`
	OK        bool          `json:"ok"`
	Elapsed   time.Duration `json:"elapsed"`
}

// DatasetCount summarizes the journal for one dataset.
type DatasetCount struct {
	Dataset string
	Entries int
	Last    time.Time
}

// Journal provides SQLite-backed insight history.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at the given path.
func Open(dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record stores e, assigning an ID and timestamp when they are unset. The
// stored entry is returned.
func (j *Journal) Record(e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	ok := 0
	if e.OK {
		ok = 1
	}

	_, err := j.db.Exec(`INSERT OR REPLACE INTO insights
		(id, created_at, dataset, row_count, column_count, mode, model, question, answer, ok, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(timeLayout), e.Dataset, e.Rows, e.Columns,
		e.Mode, e.Model, e.Question, e.Answer, ok, e.Elapsed.Milliseconds(),
	)
	if err != nil {
		return e, fmt.Errorf("recording insight: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit > 0 {
		return j.query("ORDER BY created_at DESC LIMIT ?", limit)
	}
	return j.query("ORDER BY created_at DESC")
}

// Get returns the entry with the given ID.
func (j *Journal) Get(id string) (Entry, error) {
	entries, err := j.query(`WHERE id = ?`, id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, sql.ErrNoRows
	}
	return entries[0], nil
}

func (j *Journal) query(where string, args ...any) ([]Entry, error) {
	rows, err := j.db.Query(`SELECT id, created_at, dataset, row_count, column_count, mode, model,
		question, answer, ok, elapsed_ms FROM insights `+where, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var (
			e               Entry
			created         string
			model, question sql.NullString
			ok              int
			elapsedMs       sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &created, &e.Dataset, &e.Rows, &e.Columns, &e.Mode,
			&model, &question, &e.Answer, &ok, &elapsedMs); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		e.Model = model.String
		e.Question = question.String
		e.OK = ok != 0
		e.Elapsed = time.Duration(elapsedMs.Int64) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Datasets returns per-dataset entry counts, most recently used first.
func (j *Journal) Datasets() ([]DatasetCount, error) {
	rows, err := j.db.Query(`SELECT dataset, COUNT(*), MAX(created_at)
		FROM insights GROUP BY dataset ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []DatasetCount
	for rows.Next() {
		var d DatasetCount
		var last string
		if err := rows.Scan(&d.Dataset, &d.Entries, &last); err != nil {
			return nil, err
		}
		d.Last, _ = time.Parse(timeLayout, last)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Delete removes an entry.
func (j *Journal) Delete(id string) error {
	_, err := j.db.Exec("DELETE FROM insights WHERE id = ?", id)
	return err
}

// Prune removes entries older than cutoff and reports how many were deleted.
func (j *Journal) Prune(cutoff time.Time) (int64, error) {
	res, err := j.db.Exec("DELETE FROM insights WHERE created_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of journal entries.
func (j *Journal) Count() (int, error) {
	var count int
	err := j.db.QueryRow("SELECT COUNT(*) FROM insights").Scan(&count)
	return count, err
}
