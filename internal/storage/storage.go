// Package storage defines the repository abstraction shared by all physical
// backends. A Repository stores one record type keyed by a single normalized
// string key; backends differ only in how rows are persisted.
package storage

import "time"

// Codec maps a record to and from its tabular representation.
// Implementations own column layout, type coercion and key derivation.
type Codec[T any] interface {
	// Columns returns the column names, in persisted order.
	Columns() []string
	// Encode serializes a record into one cell per column. Absent optional
	// values must encode as empty strings.
	Encode(rec T) ([]string, error)
	// Decode parses one row back into a record, re-normalizing the key and
	// coercing typed columns (timestamps, decimals, enums).
	Decode(row []string) (T, error)
	// Key extracts the record's normalized unique key.
	Key(rec T) string
	// NormalizeKey canonicalizes a lookup key the same way stored keys are.
	NormalizeKey(key string) string
}

// Repository is a keyed store over a single record type.
//
// Lookup misses are return values, not errors: Get and Update return
// (nil, nil) when the key is absent, Delete returns false.
type Repository[T any] interface {
	// Add appends a record. Fails with *DuplicateKeyError if the key exists.
	Add(rec T) error
	// AddMany appends a batch atomically: if any record collides with an
	// existing key or with another record in the batch, nothing is persisted.
	AddMany(recs []T) error
	// Get returns the record for key, or (nil, nil) if absent.
	Get(key string) (*T, error)
	// GetAll returns every record. An empty store yields an empty slice.
	GetAll() ([]T, error)
	// Update overwrites the record matching rec's key. Returns (nil, nil)
	// when the key is absent; it never creates.
	Update(rec T) (*T, error)
	// Delete removes the record(s) for key. Returns whether anything matched.
	Delete(key string) (bool, error)
	// Exists reports whether key is present.
	Exists(key string) (bool, error)
}

// TimeRangeRepository adds inclusive date-range filtering over a designated
// timestamp column.
type TimeRangeRepository[T any] interface {
	Repository[T]
	// GetByDateRange returns records whose timestamp falls in [start, end],
	// inclusive on both bounds. A row with an unparseable timestamp fails the
	// whole query with *StorageError.
	GetByDateRange(start, end time.Time) ([]T, error)
}
