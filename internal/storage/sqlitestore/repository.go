package sqlitestore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/storage"
)

// Store is a sqlite-table-backed repository. Rows are stored cell-for-cell
// the way the codec encodes them, plus a dedicated key column, so the two
// backends are byte-compatible at the record level.
type Store[T any] struct {
	db    *DB
	table string
	codec storage.Codec[T]
	log   zerolog.Logger
}

// New creates a sqlite store over the named table, creating it if missing
func New[T any](db *DB, table string, codec storage.Codec[T], log zerolog.Logger) (*Store[T], error) {
	s := &Store[T]{
		db:    db,
		table: table,
		codec: codec,
		log:   log.With().Str("repo", table).Logger(),
	}
	if err := s.ensureTable(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store[T]) ensureTable() error {
	cols := make([]string, 0, len(s.codec.Columns())+1)
	cols = append(cols, `"_key" TEXT PRIMARY KEY`)
	for _, c := range s.codec.Columns() {
		cols = append(cols, fmt.Sprintf("%q TEXT", c))
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", s.table, strings.Join(cols, ", "))
	if _, err := s.db.Conn().Exec(query); err != nil {
		return storage.NewStorageError("create table", err)
	}
	return nil
}

func (s *Store[T]) columnList() string {
	quoted := make([]string, 0, len(s.codec.Columns()))
	for _, c := range s.codec.Columns() {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	return strings.Join(quoted, ", ")
}

func (s *Store[T]) placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (s *Store[T]) insertOne(tx *sql.Tx, rec T) error {
	cells, err := s.codec.Encode(rec)
	if err != nil {
		return storage.NewStorageError("encode", err)
	}

	key := s.codec.Key(rec)
	args := make([]any, 0, len(cells)+1)
	args = append(args, key)
	for _, c := range cells {
		args = append(args, c)
	}

	query := fmt.Sprintf(
		"INSERT INTO %q (\"_key\", %s) VALUES (%s)",
		s.table, s.columnList(), s.placeholders(len(args)),
	)
	if _, err := tx.Exec(query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return &storage.DuplicateKeyError{Key: key}
		}
		return storage.NewStorageError("insert", err)
	}
	return nil
}

// Add appends a record, failing if its key already exists
func (s *Store[T]) Add(rec T) error {
	return s.AddMany([]T{rec})
}

// AddMany appends a batch atomically inside one transaction
func (s *Store[T]) AddMany(recs []T) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return storage.NewStorageError("begin", err)
	}

	for _, rec := range recs {
		if err := s.insertOne(tx, rec); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.NewStorageError("commit", err)
	}
	return nil
}

// Get returns the record for key, or (nil, nil) if absent
func (s *Store[T]) Get(key string) (*T, error) {
	key = s.codec.NormalizeKey(key)
	query := fmt.Sprintf("SELECT %s FROM %q WHERE \"_key\" = ?", s.columnList(), s.table)

	row := s.db.Conn().QueryRow(query, key)
	rec, err := s.scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAll returns every record
func (s *Store[T]) GetAll() ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %q", s.columnList(), s.table)
	rows, err := s.db.Conn().Query(query)
	if err != nil {
		return nil, storage.NewStorageError("query", err)
	}
	defer rows.Close()

	recs := make([]T, 0)
	for rows.Next() {
		rec, err := s.scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewStorageError("query", err)
	}
	return recs, nil
}

func (s *Store[T]) scanRecord(scan func(...any) error) (*T, error) {
	cells := make([]string, len(s.codec.Columns()))
	ptrs := make([]any, len(cells))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	if err := scan(ptrs...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, storage.NewStorageError("scan", err)
	}

	rec, err := s.codec.Decode(cells)
	if err != nil {
		return nil, storage.NewStorageError("decode", err)
	}
	return &rec, nil
}

// Update overwrites the row matching rec's key, or returns (nil, nil)
func (s *Store[T]) Update(rec T) (*T, error) {
	cells, err := s.codec.Encode(rec)
	if err != nil {
		return nil, storage.NewStorageError("encode", err)
	}

	sets := make([]string, 0, len(cells))
	args := make([]any, 0, len(cells)+1)
	for i, col := range s.codec.Columns() {
		sets = append(sets, fmt.Sprintf("%q = ?", col))
		args = append(args, cells[i])
	}
	args = append(args, s.codec.Key(rec))

	query := fmt.Sprintf("UPDATE %q SET %s WHERE \"_key\" = ?", s.table, strings.Join(sets, ", "))
	res, err := s.db.Conn().Exec(query, args...)
	if err != nil {
		return nil, storage.NewStorageError("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, storage.NewStorageError("update", err)
	}
	if n == 0 {
		return nil, nil
	}
	return &rec, nil
}

// Delete removes the row for key, reporting whether it matched
func (s *Store[T]) Delete(key string) (bool, error) {
	key = s.codec.NormalizeKey(key)
	query := fmt.Sprintf("DELETE FROM %q WHERE \"_key\" = ?", s.table)

	res, err := s.db.Conn().Exec(query, key)
	if err != nil {
		return false, storage.NewStorageError("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storage.NewStorageError("delete", err)
	}
	return n > 0, nil
}

// Exists reports whether key is present
func (s *Store[T]) Exists(key string) (bool, error) {
	key = s.codec.NormalizeKey(key)
	query := fmt.Sprintf("SELECT COUNT(1) FROM %q WHERE \"_key\" = ?", s.table)

	var n int
	if err := s.db.Conn().QueryRow(query, key).Scan(&n); err != nil {
		return false, storage.NewStorageError("exists", err)
	}
	return n > 0, nil
}

// TimeRangeStore extends Store with inclusive date-range queries
type TimeRangeStore[T any] struct {
	*Store[T]
	dateCol int
}

// NewTimeRange creates a time-range sqlite store. dateField must name one of
// the codec's columns.
func NewTimeRange[T any](db *DB, table string, codec storage.Codec[T], dateField string, log zerolog.Logger) (*TimeRangeStore[T], error) {
	base, err := New(db, table, codec, log)
	if err != nil {
		return nil, err
	}

	dateCol := -1
	for i, col := range codec.Columns() {
		if col == dateField {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("date field %q is not a column of table %s", dateField, table)
	}

	return &TimeRangeStore[T]{Store: base, dateCol: dateCol}, nil
}

// GetByDateRange filters on the timestamp column, inclusive on both bounds.
// Timestamps are parsed from their stored string form so the backend matches
// the CSV store's semantics exactly, including the unparseable-row failure.
func (s *TimeRangeStore[T]) GetByDateRange(start, end time.Time) ([]T, error) {
	dateField := s.codec.Columns()[s.dateCol]
	query := fmt.Sprintf("SELECT %s FROM %q", s.columnList(), s.table)

	rows, err := s.db.Conn().Query(query)
	if err != nil {
		return nil, storage.NewStorageError("query", err)
	}
	defer rows.Close()

	var recs []T
	for rows.Next() {
		cells := make([]string, len(s.codec.Columns()))
		ptrs := make([]any, len(cells))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, storage.NewStorageError("scan", err)
		}

		ts, err := storage.ParseTimestamp(cells[s.dateCol])
		if err != nil {
			return nil, storage.NewStorageError("date range query",
				fmt.Errorf("column %s: %w", dateField, err))
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}

		rec, err := s.codec.Decode(cells)
		if err != nil {
			return nil, storage.NewStorageError("decode", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.NewStorageError("query", err)
	}
	return recs, nil
}
