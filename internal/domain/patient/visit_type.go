package patient

// LatestVisitIndex returns the index of the visit with the newest date, the
// first one on ties. When no visit has a usable date it falls back to the last
// element. Returns -1 for an empty list.
func LatestVisitIndex(visits []Visit) int {
	idx := -1
	for i := range visits {
		if !visits[i].Date.Valid() {
			continue
		}
		if idx == -1 || visits[i].Date.After(visits[idx].Date) {
			idx = i
		}
	}
	if idx == -1 {
		return len(visits) - 1
	}
	return idx
}

// LastVisitIndex is the receipt target when no visit id is given: the last
// visit inserted, whatever its date. Returns -1 for an empty list.
func LastVisitIndex(visits []Visit) int {
	return len(visits) - 1
}

// ApplyVisitTypeChange is the single place where the denormalised visit type
// is kept in sync: it appends the audit entry, updates the patient's current
// type and urgency, and rewrites the type of the latest-by-date visit. It
// returns the index of the visit it touched, or -1.
func (p *Patient) ApplyVisitTypeChange(change VisitTypeChange) int {
	p.VisitTypeChangeHistory = append(p.VisitTypeChangeHistory, change)
	p.VisitType = change.ToType
	p.VisitUrgency = change.ToUrgency

	idx := LatestVisitIndex(p.Visits)
	if idx >= 0 {
		p.Visits[idx].VisitType = change.ToType
	}
	return idx
}
