package patient

import (
	"slices"
	"strings"
	"time"
)

// LogicalPatient is the merged view of every patient document sharing a phone.
type LogicalPatient struct {
	Patient

	TotalVisits   int       `json:"total_visits"`
	LastVisitDate VisitDate `json:"last_visit_date"`
	// SourceIDs lists the store ids of the merged documents, in merge order.
	SourceIDs []string `json:"source_ids"`
	DoctorIDs []string `json:"doctor_ids"`

	recency time.Time
}

// Merge groups documents by phone number. The first document seen for a phone
// is the base record; later documents contribute their visits (filtered by w)
// and overwrite the demographic and queue fields only when their recency
// marker is strictly newer than the group's. Visits are concatenated, never
// de-duplicated, and each group's timeline is stable-sorted newest first.
//
// Documents without a phone are not grouped with each other: each one becomes
// its own logical patient with an empty phone.
func Merge(docs []*Patient, w DateWindow, today time.Time) []*LogicalPatient {
	groups := make(map[string]*LogicalPatient, len(docs))
	out := make([]*LogicalPatient, 0, len(docs))

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		visits := FilterVisitsByDate(doc.Visits, w, today)

		if doc.Phone != "" {
			if lp, ok := groups[doc.Phone]; ok {
				lp.absorb(doc, visits)
				continue
			}
		}

		lp := newLogical(doc, visits)
		if doc.Phone != "" {
			groups[doc.Phone] = lp
		}
		out = append(out, lp)
	}

	for _, lp := range out {
		SortVisitsNewestFirst(lp.Visits)
		lp.TotalVisits = len(lp.Visits)
		lp.LastVisitDate = VisitDate{}
		if len(lp.Visits) > 0 {
			lp.LastVisitDate = lp.Visits[0].Date
		}
	}
	return out
}

func newLogical(doc *Patient, visits []Visit) *LogicalPatient {
	base := *doc
	base.Visits = visits
	base.VisitTypeChangeHistory = slices.Clone(doc.VisitTypeChangeHistory)
	return &LogicalPatient{
		Patient:   base,
		SourceIDs: []string{doc.ID.Hex()},
		DoctorIDs: []string{doc.DoctorID},
		recency:   doc.RecencyMarker(),
	}
}

func (lp *LogicalPatient) absorb(doc *Patient, visits []Visit) {
	lp.Visits = append(lp.Visits, visits...)
	SortVisitsNewestFirst(lp.Visits)

	if marker := doc.RecencyMarker(); marker.After(lp.recency) {
		lp.Name = doc.Name
		lp.Age = doc.Age
		lp.Address = doc.Address
		lp.FCMToken = doc.FCMToken
		lp.Token = doc.Token
		lp.Status = doc.Status
		lp.Date = doc.Date
		lp.Time = doc.Time
		lp.recency = marker
	}

	lp.SourceIDs = append(lp.SourceIDs, doc.ID.Hex())
	if !slices.Contains(lp.DoctorIDs, doc.DoctorID) {
		lp.DoctorIDs = append(lp.DoctorIDs, doc.DoctorID)
	}
}

// AsPatient returns the merged record as a single document, e.g. to feed it
// back through Merge.
func (lp *LogicalPatient) AsPatient() *Patient {
	p := lp.Patient
	p.Visits = slices.Clone(lp.Visits)
	return &p
}

// SortVisitsNewestFirst stable-sorts by visit date descending. Undated and
// malformed visits go last, keeping their relative order.
func SortVisitsNewestFirst(visits []Visit) {
	slices.SortStableFunc(visits, func(a, b Visit) int {
		return compareDesc(a.Date, b.Date)
	})
}

// SortLogical orders merged patients by "name", "visitCount" or, by default,
// recency ("date"). Ties keep their merge order.
func SortLogical(list []*LogicalPatient, sortBy, sortOrder string) {
	asc := strings.EqualFold(sortOrder, "asc")

	var cmp func(a, b *LogicalPatient) int
	switch sortBy {
	case "name":
		cmp = func(a, b *LogicalPatient) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case "visitCount":
		cmp = func(a, b *LogicalPatient) int {
			return a.TotalVisits - b.TotalVisits
		}
	default:
		cmp = func(a, b *LogicalPatient) int {
			return a.recency.Compare(b.recency)
		}
	}

	slices.SortStableFunc(list, func(a, b *LogicalPatient) int {
		if asc {
			return cmp(a, b)
		}
		return cmp(b, a)
	})
}
