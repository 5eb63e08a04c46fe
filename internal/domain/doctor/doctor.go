package doctor

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PrintSettings struct {
	PaperSize         string   `bson:"paperSize" json:"paperSize"`
	MarginTop         float64  `bson:"marginTop" json:"marginTop"`
	ShowHeader        bool     `bson:"showHeader" json:"showHeader"`
	ShowFooter        bool     `bson:"showFooter" json:"showFooter"`
	ShowPatientInfo   bool     `bson:"showPatientInfo" json:"showPatientInfo"`
	CustomPaperWidth  *float64 `bson:"customPaperWidth,omitempty" json:"customPaperWidth,omitempty"`
	CustomPaperHeight *float64 `bson:"customPaperHeight,omitempty" json:"customPaperHeight,omitempty"`
}

// Settings holds the clinic's receipt layout and the doctor's simple fee
// table. The fees are the first pricing tier for visit types.
type Settings struct {
	ReceiptHeader string `bson:"receiptHeader" json:"receiptHeader"`
	ReceiptFooter string `bson:"receiptFooter" json:"receiptFooter"`
	ClinicName    string `bson:"clinicName" json:"clinicName"`
	DoctorTitle   string `bson:"doctorTitle" json:"doctorTitle"`
	ClinicAddress string `bson:"clinicAddress" json:"clinicAddress"`
	ClinicPhone   string `bson:"clinicPhone" json:"clinicPhone"`
	LogoURL       string `bson:"logoUrl" json:"logoUrl"`

	ConsultationFee float64 `bson:"consultationFee" json:"consultationFee"`
	RevisitFee      float64 `bson:"revisitFee" json:"revisitFee"`
	EstisharaFee    float64 `bson:"estisharaFee" json:"estisharaFee"`
	UrgentFee       float64 `bson:"urgentFee" json:"urgentFee"`

	ReferralSources []string      `bson:"referralSources" json:"referralSources"`
	PrintSettings   PrintSettings `bson:"printSettings" json:"printSettings"`
}

type Doctor struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"-"`
	DoctorID  string        `bson:"doctor_id" json:"doctor_id"`
	Name      string        `bson:"name" json:"name"`
	Email     string        `bson:"email" json:"email"`
	Settings  Settings      `bson:"settings" json:"settings"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// DefaultSettings is what a doctor without a stored document sees.
func DefaultSettings() Settings {
	return Settings{
		ReferralSources: []string{},
		PrintSettings: PrintSettings{
			PaperSize:       "a4",
			ShowHeader:      true,
			ShowFooter:      true,
			ShowPatientInfo: true,
		},
	}
}

// UpdateSettingsCommand uses pointers so a caller can set a fee back to 0.
type UpdateSettingsCommand struct {
	Name            *string
	Email           *string
	ReceiptHeader   *string
	ReceiptFooter   *string
	ClinicName      *string
	DoctorTitle     *string
	ClinicAddress   *string
	ClinicPhone     *string
	LogoURL         *string
	ConsultationFee *float64
	RevisitFee      *float64
	EstisharaFee    *float64
	UrgentFee       *float64
	ReferralSources *[]string
	PrintSettings   *PrintSettings
}

func (c *UpdateSettingsCommand) Fees() []*float64 {
	return []*float64{c.ConsultationFee, c.RevisitFee, c.EstisharaFee, c.UrgentFee}
}

// Apply copies every set field onto d.
func (c *UpdateSettingsCommand) Apply(d *Doctor) {
	setString(&d.Name, c.Name)
	setString(&d.Email, c.Email)

	s := &d.Settings
	setString(&s.ReceiptHeader, c.ReceiptHeader)
	setString(&s.ReceiptFooter, c.ReceiptFooter)
	setString(&s.ClinicName, c.ClinicName)
	setString(&s.DoctorTitle, c.DoctorTitle)
	setString(&s.ClinicAddress, c.ClinicAddress)
	setString(&s.ClinicPhone, c.ClinicPhone)
	setString(&s.LogoURL, c.LogoURL)

	setFloat(&s.ConsultationFee, c.ConsultationFee)
	setFloat(&s.RevisitFee, c.RevisitFee)
	setFloat(&s.EstisharaFee, c.EstisharaFee)
	setFloat(&s.UrgentFee, c.UrgentFee)

	if c.ReferralSources != nil {
		s.ReferralSources = append([]string{}, (*c.ReferralSources)...)
	}
	if c.PrintSettings != nil {
		s.PrintSettings = *c.PrintSettings
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
