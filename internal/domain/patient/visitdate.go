package patient

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// dayLayout is the calendar-day key used for all date window comparisons.
const dayLayout = "2006-01-02"

var visitDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dayLayout,
	"2006/01/02",
	"1/2/2006",
}

// VisitDate is a visit timestamp as found in the store. Historical write paths
// stored BSON dates, ISO strings, free text or nothing at all, so a VisitDate
// is one of: valid (parsed), malformed (raw text kept) or absent.
type VisitDate struct {
	t   time.Time
	raw string
}

func NewVisitDate(t time.Time) VisitDate {
	return VisitDate{t: t.UTC()}
}

// ParseVisitDate never fails: text that does not parse is kept verbatim.
func ParseVisitDate(s string) VisitDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return VisitDate{}
	}
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return VisitDate{t: t.UTC(), raw: s}
		}
	}
	return VisitDate{raw: s}
}

func (d VisitDate) Time() (time.Time, bool) {
	return d.t, !d.t.IsZero()
}

func (d VisitDate) Valid() bool { return !d.t.IsZero() }

// IsZero reports that no date was recorded at all.
func (d VisitDate) IsZero() bool { return d.t.IsZero() && d.raw == "" }

// Day returns the UTC calendar day key, false when the date is absent or malformed.
func (d VisitDate) Day() (string, bool) {
	if d.t.IsZero() {
		return "", false
	}
	return d.t.Format(dayLayout), true
}

func (d VisitDate) String() string {
	if !d.t.IsZero() {
		return d.t.Format(time.RFC3339)
	}
	return d.raw
}

// After orders valid dates; anything without a valid date is never after another date.
func (d VisitDate) After(o VisitDate) bool {
	if d.t.IsZero() {
		return false
	}
	if o.t.IsZero() {
		return true
	}
	return d.t.After(o.t)
}

// compareDesc orders newest first with undated and malformed dates last.
func compareDesc(a, b VisitDate) int {
	switch {
	case a.Valid() && b.Valid():
		return b.t.Compare(a.t)
	case a.Valid():
		return -1
	case b.Valid():
		return 1
	default:
		return 0
	}
}

func (d VisitDate) MarshalBSONValue() (byte, []byte, error) {
	var (
		typ  bson.Type
		data []byte
		err  error
	)
	switch {
	case d.Valid():
		typ, data, err = bson.MarshalValue(bson.NewDateTimeFromTime(d.t))
	case d.raw != "":
		typ, data, err = bson.MarshalValue(d.raw)
	default:
		typ, data, err = bson.MarshalValue(nil)
	}
	return byte(typ), data, err
}

func (d *VisitDate) UnmarshalBSONValue(typ byte, data []byte) error {
	rv := bson.RawValue{Type: bson.Type(typ), Value: data}
	switch rv.Type {
	case bson.TypeDateTime:
		*d = NewVisitDate(rv.Time())
	case bson.TypeString:
		*d = ParseVisitDate(rv.StringValue())
	case bson.TypeNull, bson.TypeUndefined:
		*d = VisitDate{}
	default:
		// Anything else is legacy noise; keep it visible instead of failing the decode.
		*d = VisitDate{raw: rv.String()}
	}
	return nil
}

func (d VisitDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *VisitDate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = VisitDate{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = VisitDate{raw: string(b)}
		return nil
	}
	*d = ParseVisitDate(s)
	return nil
}
