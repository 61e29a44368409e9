package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customDate struct{ t time.Time }

func (c customDate) ToDate() time.Time { return c.t }

func TestToDateRepresentations(t *testing.T) {
	want := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)

	cases := map[string]any{
		"time":            want,
		"time pointer":    &want,
		"dateable":        customDate{t: want},
		"timestamp":       Timestamp{Seconds: want.Unix()},
		"timestamp ptr":   &Timestamp{Seconds: want.Unix()},
		"timestamp map":   map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)},
		"iso string":      "2025-01-24",
		"rfc3339 string":  "2025-01-24T00:00:00Z",
		"epoch millis":    want.UnixMilli(),
		"epoch as float":  float64(want.UnixMilli()),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ToDate(input)
			require.True(t, ok)
			assert.True(t, got.Equal(want), "got %v want %v", got, want)
		})
	}
}

func TestToDateRejectsUnknownShapes(t *testing.T) {
	for name, input := range map[string]any{
		"nil":            nil,
		"nil time ptr":   (*time.Time)(nil),
		"empty string":   "",
		"garbage string": "not a date",
		"bool":           true,
		"missing secs":   map[string]any{"nanoseconds": float64(1)},
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := ToDate(input)
			assert.False(t, ok)
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 24, 2025", FormatDate("2025-01-24"))
	assert.Equal(t, "", FormatDate(nil))
	assert.Equal(t, "", FormatDate("nonsense"))
}

func TestFormatDateForInput(t *testing.T) {
	assert.Equal(t, "2025-01-24", FormatDateForInput(time.Date(2025, 1, 24, 18, 30, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDateForInput(nil))
}

func TestRelativeTimeBuckets(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"same moment", 0, "Today"},
		{"under a day", 23 * time.Hour, "Today"},
		{"one day", 24 * time.Hour, "Yesterday"},
		{"under two days", 47 * time.Hour, "Yesterday"},
		{"two days", 48 * time.Hour, "2 days ago"},
		{"six days", 6 * 24 * time.Hour, "6 days ago"},
		{"seven days", 7 * 24 * time.Hour, "1 week ago"},
		{"thirteen days", 13 * 24 * time.Hour, "1 week ago"},
		{"fourteen days", 14 * 24 * time.Hour, "2 weeks ago"},
		{"twenty-nine days", 29 * 24 * time.Hour, "4 weeks ago"},
		{"thirty days", 30 * 24 * time.Hour, "1 month ago"},
		{"sixty days", 60 * 24 * time.Hour, "2 months ago"},
		{"under a year", 364 * 24 * time.Hour, "12 months ago"},
		{"one year", 365 * 24 * time.Hour, "1 year ago"},
		{"two years", 730 * 24 * time.Hour, "2 years ago"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeTimeAt(now.Add(-tc.ago), now))
		})
	}
}

func TestRelativeTimeFutureClampsToToday(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Today", RelativeTimeAt(now.Add(48*time.Hour), now))
}

func TestFormatEventDateOrdinals(t *testing.T) {
	cases := []struct {
		day  int
		want string
	}{
		{1, "1st Jan 2025"},
		{2, "2nd Jan 2025"},
		{3, "3rd Jan 2025"},
		{4, "4th Jan 2025"},
		{11, "11th Jan 2025"},
		{12, "12th Jan 2025"},
		{13, "13th Jan 2025"},
		{21, "21st Jan 2025"},
		{22, "22nd Jan 2025"},
		{23, "23rd Jan 2025"},
		{24, "24th Jan 2025"},
		{31, "31st Jan 2025"},
	}
	for _, tc := range cases {
		input := time.Date(2025, time.January, tc.day, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tc.want, FormatEventDate(input))
	}
}

func TestFormatEventDateUnknown(t *testing.T) {
	assert.Equal(t, "", FormatEventDate(nil))
}
