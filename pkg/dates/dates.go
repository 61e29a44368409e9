package dates

import (
	"fmt"
	"time"
)

// Timestamp mirrors the seconds/nanoseconds shape emitted by the legacy
// document store for date fields.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// Dateable is implemented by values that can convert themselves to a time.
type Dateable interface {
	ToDate() time.Time
}

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
}

// ToDate normalises heterogeneous timestamp representations into a single
// comparable time. It accepts native times, Dateable values, Timestamp
// structs (and their map form as decoded from JSON), parseable strings and
// epoch-millisecond numbers. Anything else yields ok=false; callers treat
// that as "unknown date" and render an empty string rather than failing.
func ToDate(input any) (time.Time, bool) {
	switch v := input.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case Dateable:
		return v.ToDate(), true
	case Timestamp:
		return time.Unix(v.Seconds, v.Nanoseconds).UTC(), true
	case *Timestamp:
		if v == nil {
			return time.Time{}, false
		}
		return time.Unix(v.Seconds, v.Nanoseconds).UTC(), true
	case map[string]any:
		secs, ok := asInt64(v["seconds"])
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := asInt64(v["nanoseconds"])
		return time.Unix(secs, nanos).UTC(), true
	case string:
		if v == "" {
			return time.Time{}, false
		}
		for _, layout := range stringLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case int, int32, int64, float32, float64:
		millis, ok := asInt64(v)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(millis).UTC(), true
	default:
		return time.Time{}, false
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// FormatDate renders a short localized date such as "Jan 15, 2024".
// Unknown dates render as the empty string.
func FormatDate(input any) string {
	t, ok := ToDate(input)
	if !ok {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateForInput renders the ISO calendar date used by date inputs.
func FormatDateForInput(input any) string {
	t, ok := ToDate(input)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatRelativeTime buckets the distance between the input and now:
// Today, Yesterday, "N days ago" (2-6), "N week(s) ago" (7-29 days),
// "N month(s) ago" (30-364) and "N year(s) ago" (365+). Each bucket is
// inclusive of its lower bound and exclusive of the upper.
func FormatRelativeTime(input any) string {
	return RelativeTimeAt(input, time.Now())
}

// RelativeTimeAt is FormatRelativeTime with an explicit reference time.
func RelativeTimeAt(input any, now time.Time) string {
	t, ok := ToDate(input)
	if !ok {
		return ""
	}

	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		days = 0
	}

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return plural(days/7, "week")
	case days < 365:
		return plural(days/30, "month")
	default:
		return plural(days/365, "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// FormatEventDate renders the ordinal-day form used on event cards,
// e.g. "24th Jan 2025".
func FormatEventDate(input any) string {
	t, ok := ToDate(input)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d%s %s %d", t.Day(), ordinalSuffix(t.Day()), t.Format("Jan"), t.Year())
}

func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
