package portal

import (
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/pkg/pagination"
)

// MedicalInfo is a patient's demographic and clinical summary.
type MedicalInfo struct {
	PatientID       string   `db:"patient_id" json:"patient_id"`
	Username        string   `db:"username" json:"username"`
	FirstName       string   `db:"first_name" json:"first_name"`
	LastName        string   `db:"last_name" json:"last_name"`
	BloodType       *string  `db:"blood_type" json:"blood_type,omitempty"`
	HeightCm        *float64 `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg        *float64 `db:"weight_kg" json:"weight_kg,omitempty"`
	HasHadSurgery   bool     `db:"has_had_surgery" json:"has_had_surgery"`
	AdditionalNotes *string  `db:"additional_notes" json:"additional_notes,omitempty"`
}

// Link is a navigation entry on the dashboard.
type Link struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// HomePage is the landing page for anonymous visitors and the dashboard
// for signed-in ones. Auth is empty when nobody is signed in.
type HomePage struct {
	Page     string    `json:"page"`
	Auth     string    `json:"auth,omitempty"`
	Username string    `json:"username,omitempty"`
	Role     auth.Role `json:"role,omitempty"`
	Links    []Link    `json:"links"`
	Message  string    `json:"message,omitempty"`
}

type MyInfoPage struct {
	Page    string       `json:"page"`
	Auth    string       `json:"auth"`
	Info    *MedicalInfo `json:"info"`
	Message string       `json:"message,omitempty"`
}

type PatientInfoPage struct {
	Page     string          `json:"page"`
	Auth     string          `json:"auth"`
	Patients []*MedicalInfo  `json:"patients"`
	Paging   pagination.Page `json:"paging"`
	Message  string          `json:"message,omitempty"`
}

var (
	anonymousLinks = []Link{
		{"Log in", "/login"},
		{"Register", "/register"},
	}
	patientLinks = []Link{
		{"My medical info", "/my-info"},
		{"Request a refill", "/request-refill"},
		{"Report an incident", "/incident-form"},
		{"Book an appointment", "/create-appointment"},
		{"Messages", "/chat"},
		{"Log out", "/logout"},
	}
	clinicianLinks = []Link{
		{"Patient info", "/patient-info"},
		{"Refill requests", "/patient-refills"},
		{"Incident reports", "/incident-response"},
		{"My appointments", "/doctor-appointments"},
		{"Book an appointment", "/create-appointment"},
		{"Messages", "/chat"},
		{"Log out", "/logout"},
	}
)

// LinksFor returns the dashboard navigation for role.
func LinksFor(role auth.Role) []Link {
	switch role {
	case auth.RolePatient:
		return patientLinks
	case auth.RoleClinician:
		return clinicianLinks
	default:
		return anonymousLinks
	}
}
