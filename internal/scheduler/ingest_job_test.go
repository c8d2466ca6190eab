package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/earnings-scraper/internal/calendar"
	"github.com/finwatch/earnings-scraper/internal/domain"
)

type fakeIngester struct {
	gotDate time.Time
	err     error
}

func (f *fakeIngester) FetchDaily(ctx context.Context, date time.Time) ([]domain.EarningsReport, error) {
	f.gotDate = date
	return nil, f.err
}

func TestIngestJobTargetsCurrentTradingDay(t *testing.T) {
	ing := &fakeIngester{}
	job := NewIngestJob(ing, calendar.New(), zerolog.Nop())
	// Thursday evening after close.
	job.now = func() time.Time { return time.Date(2026, 1, 29, 22, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	assert.Equal(t, "2026-01-29", ing.gotDate.Format("2006-01-02"))
}

func TestIngestJobFallsBackOverWeekend(t *testing.T) {
	ing := &fakeIngester{}
	job := NewIngestJob(ing, calendar.New(), zerolog.Nop())
	// Sunday: the most recent trading day is Friday.
	job.now = func() time.Time { return time.Date(2026, 2, 1, 22, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	assert.Equal(t, "2026-01-30", ing.gotDate.Format("2006-01-02"))
}

func TestIngestJobPropagatesFailure(t *testing.T) {
	ing := &fakeIngester{err: errors.New("upstream down")}
	job := NewIngestJob(ing, calendar.New(), zerolog.Nop())
	job.now = func() time.Time { return time.Date(2026, 1, 29, 22, 30, 0, 0, time.UTC) }

	assert.Error(t, job.Run())
}
