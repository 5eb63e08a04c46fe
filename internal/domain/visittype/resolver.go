package visittype

import (
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicdesk/internal/domain/doctor"
)

type Tier int

const (
	TierDoctorSettings Tier = iota + 1
	TierConfiguration
	TierDefault
)

// Resolution is the outcome of pricing a visit type.
type Resolution struct {
	Price         float64 `json:"price"`
	CanonicalName string  `json:"canonical_name"`
	Tier          Tier    `json:"tier"`
}

type category int

const (
	categoryNone category = iota
	categoryVisit
	categoryRevisit
	categoryConsultation
)

var synonyms = map[string]category{
	"visit":    categoryVisit,
	"new":      categoryVisit,
	"كشف":      categoryVisit,
	"كشف جديد": categoryVisit,

	"revisit":   categoryRevisit,
	"re-visit":  categoryRevisit,
	"re visit":  categoryRevisit,
	"follow-up": categoryRevisit,
	"followup":  categoryRevisit,
	"اعاده كشف": categoryRevisit,
	"إعادة كشف": categoryRevisit,
	"اعادة كشف": categoryRevisit,
	"إعادة":     categoryRevisit,
	"اعادة":     categoryRevisit,
	"اعاده":     categoryRevisit,
	"متابعة":    categoryRevisit,

	"consultation": categoryConsultation,
	"estishara":    categoryConsultation,
	"استشارة":      categoryConsultation,
	"استشاره":      categoryConsultation,
}

var canonicalNames = map[category]string{
	categoryVisit:        "Visit",
	categoryRevisit:      "Re-visit",
	categoryConsultation: "Consultation",
}

type defaultPrice struct {
	name           string
	normal, urgent float64
}

var builtinPrices = map[string]defaultPrice{
	"visit":        {"Visit", 500, 700},
	"revisit":      {"Re-visit", 200, 300},
	"consultation": {"Consultation", 300, 450},
	"other":        {"Other", 0, 0},
}

func classify(visitType string) category {
	return synonyms[strings.ToLower(strings.TrimSpace(visitType))]
}

// Resolve prices a visit type. The first tier that recognises the type wins:
//
//  1. the doctor's simple fee table, when the doctor has a settings document
//  2. the doctor's advanced configuration, by exact type_id, name or name_ar
//  3. the built-in table, where unknown types fall into the zero-priced bucket
//
// It never fails; an unrecognised type resolves to price 0.
func Resolve(settings *doctor.Settings, cfg *Configuration, visitType, urgency string) Resolution {
	if settings != nil {
		if cat := classify(visitType); cat != categoryNone {
			var price float64
			switch cat {
			case categoryVisit:
				price = settings.ConsultationFee
			case categoryRevisit:
				price = settings.RevisitFee
			case categoryConsultation:
				price = settings.EstisharaFee
			}
			return Resolution{Price: price, CanonicalName: canonicalNames[cat], Tier: TierDoctorSettings}
		}
	}

	if t, ok := cfg.Find(visitType); ok {
		return Resolution{Price: t.Price(urgency), CanonicalName: t.Name, Tier: TierConfiguration}
	}

	key := strings.ToLower(strings.TrimSpace(visitType))
	dp, ok := builtinPrices[key]
	name := dp.name
	if !ok {
		dp = builtinPrices["other"]
		name = strings.TrimSpace(visitType)
		if name == "" {
			name = dp.name
		}
	}
	price := dp.normal
	if urgency == UrgencyUrgent {
		price = dp.urgent
	}
	return Resolution{Price: price, CanonicalName: name, Tier: TierDefault}
}
