package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsTradingDay(t *testing.T) {
	cal := New()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{
			name: "regular weekday",
			date: day(2024, time.November, 29), // Friday
			want: true,
		},
		{
			name: "saturday",
			date: day(2024, time.November, 30),
			want: false,
		},
		{
			name: "sunday",
			date: day(2024, time.December, 1),
			want: false,
		},
		{
			name: "christmas",
			date: day(2024, time.December, 25), // Wednesday
			want: false,
		},
		{
			name: "thanksgiving 2024",
			date: day(2024, time.November, 28), // 4th Thursday
			want: false,
		},
		{
			name: "mlk day 2025",
			date: day(2025, time.January, 20), // 3rd Monday
			want: false,
		},
		{
			name: "memorial day 2024",
			date: day(2024, time.May, 27), // last Monday
			want: false,
		},
		{
			name: "july 4 2026 falls on saturday, observed friday",
			date: day(2026, time.July, 3),
			want: false,
		},
		{
			name: "juneteenth 2022 falls on sunday, observed monday",
			date: day(2022, time.June, 20),
			want: false,
		},
		{
			name: "day after a holiday",
			date: day(2024, time.December, 26), // Thursday
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.IsTradingDay(tt.date))
		})
	}
}

func TestNextTradingDay(t *testing.T) {
	cal := New()

	// Friday -> Monday
	assert.Equal(t, day(2024, time.December, 2), cal.NextTradingDay(day(2024, time.November, 29)))

	// Christmas Eve 2024 (Tuesday) -> Dec 26, skipping the holiday
	assert.Equal(t, day(2024, time.December, 26), cal.NextTradingDay(day(2024, time.December, 24)))

	// Mid-week step
	assert.Equal(t, day(2024, time.November, 27), cal.NextTradingDay(day(2024, time.November, 26)))
}

func TestTradingDays(t *testing.T) {
	cal := New()

	// Thanksgiving week 2024: Mon 25, Tue 26, Wed 27, Fri 29.
	days := cal.TradingDays(day(2024, time.November, 25), day(2024, time.December, 1))
	assert.Equal(t, []time.Time{
		day(2024, time.November, 25),
		day(2024, time.November, 26),
		day(2024, time.November, 27),
		day(2024, time.November, 29),
	}, days)
}
