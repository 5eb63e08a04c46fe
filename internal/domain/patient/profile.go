package patient

import (
	"math"
	"slices"
)

// BuildProfile aggregates the documents of one person across doctors. The
// newest document by recency marker supplies the demographics; visits from
// every document are tagged with their doctor and sorted newest first.
// Returns nil for no documents.
func BuildProfile(docs []*Patient) *Profile {
	if len(docs) == 0 {
		return nil
	}

	latest := docs[0]
	created := docs[0].CreatedAt
	prof := &Profile{Doctors: []DoctorRef{}, Visits: []ProfileVisit{}}
	seenDoctor := make(map[string]bool)

	for _, d := range docs {
		if d.RecencyMarker().After(latest.RecencyMarker()) {
			latest = d
		}
		if !d.CreatedAt.IsZero() && (created.IsZero() || d.CreatedAt.Before(created)) {
			created = d.CreatedAt
		}
		if !seenDoctor[d.DoctorID] {
			seenDoctor[d.DoctorID] = true
			prof.Doctors = append(prof.Doctors, DoctorRef{DoctorID: d.DoctorID, DoctorName: d.DoctorName})
		}
		for _, v := range d.Visits {
			prof.Visits = append(prof.Visits, ProfileVisit{Visit: v, DoctorID: d.DoctorID, DoctorName: d.DoctorName})
		}
		prof.TotalReceipts += d.ReceiptCount()
	}

	sortProfileVisits(prof.Visits)

	prof.PatientID = latest.PatientID
	prof.Name = latest.Name
	prof.Phone = latest.Phone
	prof.Age = latest.Age
	prof.Address = latest.Address
	prof.FCMToken = latest.FCMToken
	prof.CreatedAt = created
	prof.TotalVisits = len(prof.Visits)
	if len(prof.Visits) > 0 {
		prof.LastVisitDate = prof.Visits[0].Date
	}
	return prof
}

// Summarize computes the history dashboard over merged patients. Only dated
// visits are candidates for RecentVisits, of which at most recent are kept.
func Summarize(list []*LogicalPatient, recent int) *HistorySummary {
	sum := &HistorySummary{
		TotalPatients: len(list),
		VisitsByType:  map[string]int{},
		RecentVisits:  []ProfileVisit{},
	}

	for _, lp := range list {
		for _, v := range lp.Visits {
			sum.TotalVisits++
			sum.TotalReceipts += len(v.Receipts)

			vt := v.VisitType
			if vt == "" {
				vt = DefaultVisitType
			}
			sum.VisitsByType[vt]++

			if v.Date.Valid() {
				sum.RecentVisits = append(sum.RecentVisits, ProfileVisit{
					Visit:      v,
					DoctorID:   lp.DoctorID,
					DoctorName: lp.DoctorName,
				})
			}
		}
	}

	if sum.TotalPatients > 0 {
		avg := float64(sum.TotalVisits) / float64(sum.TotalPatients)
		sum.AverageVisitsPerPatient = math.Round(avg*100) / 100
	}

	sortProfileVisits(sum.RecentVisits)
	if len(sum.RecentVisits) > recent {
		sum.RecentVisits = sum.RecentVisits[:recent]
	}
	return sum
}

func sortProfileVisits(visits []ProfileVisit) {
	slices.SortStableFunc(visits, func(a, b ProfileVisit) int {
		return compareDesc(a.Date, b.Date)
	})
}
