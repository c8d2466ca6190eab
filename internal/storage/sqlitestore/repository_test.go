package sqlitestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/earnings-scraper/internal/storage"
)

type testRecord struct {
	ID   string
	When time.Time
	Note string
}

type testCodec struct{}

func (testCodec) Columns() []string { return []string{"id", "when", "note"} }

func (testCodec) Encode(rec testRecord) ([]string, error) {
	return []string{rec.ID, storage.FormatTimestamp(rec.When), rec.Note}, nil
}

func (testCodec) Decode(row []string) (testRecord, error) {
	when, err := storage.ParseTimestamp(row[1])
	if err != nil {
		return testRecord{}, err
	}
	return testRecord{ID: row[0], When: when, Note: row[2]}, nil
}

func (testCodec) Key(rec testRecord) string       { return rec.ID }
func (testCodec) NormalizeKey(key string) string  { return key }

var baseTime = time.Date(2024, 11, 30, 16, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *TimeRangeStore[testRecord] {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewTimeRange(db, "records", testCodec{}, "when", zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSqliteRepositoryContract(t *testing.T) {
	s := newTestStore(t)

	// Round trip
	require.NoError(t, s.Add(testRecord{ID: "a", When: baseTime, Note: "one"}))
	got, err := s.Get("a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.When.Equal(baseTime))
	assert.Equal(t, "one", got.Note)

	// Duplicate key
	err = s.Add(testRecord{ID: "a", When: baseTime, Note: "two"})
	var dup *storage.DuplicateKeyError
	require.ErrorAs(t, err, &dup)

	// Miss is a return value
	got, err = s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Update existing, never create
	updated, err := s.Update(testRecord{ID: "a", When: baseTime, Note: "updated"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	updated, err = s.Update(testRecord{ID: "nope", When: baseTime, Note: "x"})
	require.NoError(t, err)
	assert.Nil(t, updated)

	// Exists / Delete
	ok, err := s.Exists("a")
	require.NoError(t, err)
	assert.True(t, ok)
	found, err := s.Delete("a")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = s.Delete("a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSqliteAddManyIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(testRecord{ID: "x", When: baseTime}))

	err := s.AddMany([]testRecord{
		{ID: "b", When: baseTime},
		{ID: "x", When: baseTime}, // collides
		{ID: "c", When: baseTime},
	})
	var dup *storage.DuplicateKeyError
	require.ErrorAs(t, err, &dup)

	all, err := s.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSqliteDateRangeInclusive(t *testing.T) {
	s := newTestStore(t)

	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddMany([]testRecord{
		{ID: "on-start", When: start},
		{ID: "on-end", When: end},
		{ID: "outside", When: end.Add(time.Second)},
	}))

	got, err := s.GetByDateRange(start, end)
	require.NoError(t, err)

	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"on-start", "on-end"}, ids)
}
