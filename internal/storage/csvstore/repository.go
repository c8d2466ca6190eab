// Package csvstore implements the storage interfaces on top of a single
// tabular CSV file per repository. Every mutation is a full
// read-modify-write of the backing file under one lock, so the on-disk file
// is always consistent with the last completed write. This bounds throughput
// but a single scraper process owns the files anyway.
package csvstore

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/storage"
)

// Store is a CSV-file-backed repository
type Store[T any] struct {
	path  string
	codec storage.Codec[T]
	mu    sync.Mutex
	log   zerolog.Logger
}

// New creates a CSV store, creating the file with a header row if missing
func New[T any](path string, codec storage.Codec[T], log zerolog.Logger) (*Store[T], error) {
	s := &Store[T]{
		path:  path,
		codec: codec,
		log:   log.With().Str("repo", filepath.Base(path)).Logger(),
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path
func (s *Store[T]) Path() string {
	return s.path
}

func (s *Store[T]) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return storage.NewStorageError("stat", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return storage.NewStorageError("mkdir", err)
	}
	return s.writeRows(nil)
}

// readRows loads all data rows (header excluded). Callers must hold s.mu.
func (s *Store[T]) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, storage.NewStorageError("read", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(s.codec.Columns())
	all, err := r.ReadAll()
	if err != nil {
		return nil, storage.NewStorageError("read", err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}

// writeRows rewrites the whole file: header plus rows. Callers must hold s.mu
// (except during construction, before the store is shared).
func (s *Store[T]) writeRows(rows [][]string) error {
	f, err := os.Create(s.path)
	if err != nil {
		return storage.NewStorageError("write", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(s.codec.Columns()); err != nil {
		f.Close()
		return storage.NewStorageError("write", err)
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return storage.NewStorageError("write", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return storage.NewStorageError("write", err)
	}
	if err := f.Close(); err != nil {
		return storage.NewStorageError("write", err)
	}
	return nil
}

// keyColumn returns the index of the row cell compared against record keys.
// The codec's Key covers composite keys, so matching is done by re-decoding;
// this helper only exists for error messages.
func (s *Store[T]) rowKey(row []string) (string, error) {
	rec, err := s.codec.Decode(row)
	if err != nil {
		return "", storage.NewStorageError("decode", err)
	}
	return s.codec.Key(rec), nil
}

// Add appends a record, failing if its key already exists
func (s *Store[T]) Add(rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return err
	}

	key := s.codec.Key(rec)
	for _, row := range rows {
		existing, err := s.rowKey(row)
		if err != nil {
			return err
		}
		if existing == key {
			return &storage.DuplicateKeyError{Key: key}
		}
	}

	cells, err := s.codec.Encode(rec)
	if err != nil {
		return storage.NewStorageError("encode", err)
	}
	return s.writeRows(append(rows, cells))
}

// AddMany appends a batch atomically. A collision with an existing key or
// within the batch itself persists nothing.
func (s *Store[T]) AddMany(recs []T) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(rows)+len(recs))
	for _, row := range rows {
		key, err := s.rowKey(row)
		if err != nil {
			return err
		}
		seen[key] = true
	}

	newRows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		key := s.codec.Key(rec)
		if seen[key] {
			return &storage.DuplicateKeyError{Key: key}
		}
		seen[key] = true

		cells, err := s.codec.Encode(rec)
		if err != nil {
			return storage.NewStorageError("encode", err)
		}
		newRows = append(newRows, cells)
	}

	return s.writeRows(append(rows, newRows...))
}

// Get returns the record for key, or (nil, nil) if absent
func (s *Store[T]) Get(key string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	key = s.codec.NormalizeKey(key)
	for _, row := range rows {
		rec, err := s.codec.Decode(row)
		if err != nil {
			return nil, storage.NewStorageError("decode", err)
		}
		if s.codec.Key(rec) == key {
			return &rec, nil
		}
	}
	return nil, nil
}

// GetAll returns every record, type-coerced
func (s *Store[T]) GetAll() ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decodeAll()
}

// decodeAll decodes all current rows. Callers must hold s.mu.
func (s *Store[T]) decodeAll() ([]T, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	recs := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := s.codec.Decode(row)
		if err != nil {
			return nil, storage.NewStorageError("decode", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Update overwrites the row matching rec's key, or returns (nil, nil)
func (s *Store[T]) Update(rec T) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	key := s.codec.Key(rec)
	found := false
	for i, row := range rows {
		existing, err := s.rowKey(row)
		if err != nil {
			return nil, err
		}
		if existing != key {
			continue
		}
		cells, err := s.codec.Encode(rec)
		if err != nil {
			return nil, storage.NewStorageError("encode", err)
		}
		rows[i] = cells
		found = true
	}
	if !found {
		return nil, nil
	}

	if err := s.writeRows(rows); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes all rows matching key, reporting whether any matched
func (s *Store[T]) Delete(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return false, err
	}

	key = s.codec.NormalizeKey(key)
	kept := make([][]string, 0, len(rows))
	found := false
	for _, row := range rows {
		existing, err := s.rowKey(row)
		if err != nil {
			return false, err
		}
		if existing == key {
			found = true
			continue
		}
		kept = append(kept, row)
	}
	if !found {
		return false, nil
	}

	if err := s.writeRows(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether key is present
func (s *Store[T]) Exists(key string) (bool, error) {
	rec, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Truncate removes all rows, keeping the header. Used by maintenance when
// rebuilding partition files.
func (s *Store[T]) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeRows(nil)
}
