package csvstore

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finwatch/earnings-scraper/internal/storage"
)

// TimeRangeStore extends Store with inclusive date-range queries over a
// designated timestamp column.
type TimeRangeStore[T any] struct {
	*Store[T]
	dateCol int
}

// NewTimeRange creates a time-range CSV store. dateField must name one of the
// codec's columns.
func NewTimeRange[T any](path string, codec storage.Codec[T], dateField string, log zerolog.Logger) (*TimeRangeStore[T], error) {
	base, err := New(path, codec, log)
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
		return nil, fmt.Errorf("date field %q is not a column of %s", dateField, path)
	}

	return &TimeRangeStore[T]{Store: base, dateCol: dateCol}, nil
}

// GetByDateRange returns records whose timestamp column falls in
// [start, end], inclusive on both bounds. Any row with an unparseable
// timestamp fails the whole query.
func (s *TimeRangeStore[T]) GetByDateRange(start, end time.Time) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	var recs []T
	for _, row := range rows {
		ts, err := storage.ParseTimestamp(row[s.dateCol])
		if err != nil {
			return nil, storage.NewStorageError("date range query", err)
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}
		rec, err := s.codec.Decode(row)
		if err != nil {
			return nil, storage.NewStorageError("decode", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
