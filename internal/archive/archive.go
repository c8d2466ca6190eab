// Package archive persists raw upstream payloads so a scrape can be
// replayed or audited without re-hitting the API.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Store writes one msgpack file per calendar date under a base directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// New creates an archive store rooted at dir, creating it if needed.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "archive").Logger(),
	}, nil
}

func (s *Store) pathFor(date time.Time) string {
	return filepath.Join(s.dir, date.Format("2006-01-02")+".msgpack")
}

// SaveCalendar archives a raw calendar payload for a date, replacing any
// previous archive for the same date.
func (s *Store) SaveCalendar(date time.Time, payload any) error {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode archive payload: %w", err)
	}

	path := s.pathFor(date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to finalize archive file: %w", err)
	}

	s.log.Debug().
		Str("date", date.Format("2006-01-02")).
		Int("bytes", len(data)).
		Msg("Archived raw payload")
	return nil
}

// LoadCalendar reads an archived payload into out. It returns os.ErrNotExist
// (wrapped) when no archive exists for the date.
func (s *Store) LoadCalendar(date time.Time, out any) error {
	data, err := os.ReadFile(s.pathFor(date))
	if err != nil {
		return fmt.Errorf("failed to read archive file: %w", err)
	}
	if err := msgpack.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode archive payload: %w", err)
	}
	return nil
}

// Exists reports whether an archive is present for the date.
func (s *Store) Exists(date time.Time) bool {
	_, err := os.Stat(s.pathFor(date))
	return err == nil
}
