package patient

import (
	"strings"
	"time"
)

// DateWindow bounds a visit timeline by calendar day (YYYY-MM-DD, inclusive).
// An empty Start is unbounded; an empty End means today.
type DateWindow struct {
	Start string
	End   string
}

// NewDateWindow validates the raw bounds and normalises them to day keys.
func NewDateWindow(start, end string) (DateWindow, error) {
	var w DateWindow
	if s := strings.TrimSpace(start); s != "" {
		day, ok := ParseVisitDate(s).Day()
		if !ok {
			return DateWindow{}, ErrInvalidDateWindow
		}
		w.Start = day
	}
	if e := strings.TrimSpace(end); e != "" {
		day, ok := ParseVisitDate(e).Day()
		if !ok {
			return DateWindow{}, ErrInvalidDateWindow
		}
		w.End = day
	}
	return w, nil
}

// IsExplicit reports whether the caller asked for any bound.
func (w DateWindow) IsExplicit() bool {
	return w.Start != "" || w.End != ""
}

// DayKey formats t as the UTC calendar day used by DateWindow.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// FilterVisitsByDate keeps the visits whose day falls inside w. Visits without
// a date, or with one that cannot be parsed, are always kept: malformed legacy
// data must never disappear from a patient's history. The input slice is not
// modified and input order is preserved.
func FilterVisitsByDate(visits []Visit, w DateWindow, today time.Time) []Visit {
	end := w.End
	if end == "" {
		end = DayKey(today)
	}

	out := make([]Visit, 0, len(visits))
	for _, v := range visits {
		day, ok := v.Date.Day()
		if !ok {
			out = append(out, v)
			continue
		}
		if w.Start != "" && day < w.Start {
			continue
		}
		if day > end {
			continue
		}
		out = append(out, v)
	}
	return out
}
