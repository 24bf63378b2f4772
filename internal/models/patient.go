package models

import (
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Gender as recorded at registration
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "Other"
)

// Patient is a demographic record keyed by its medical record number.
type Patient struct {
	BaseModel
	MRN              string         `gorm:"column:mrn;uniqueIndex;size:50;not null" json:"mrn" validate:"required,max=50"`
	FirstName        string         `gorm:"size:50;not null" json:"firstName" validate:"required,max=50"`
	LastName         string         `gorm:"size:50;not null" json:"lastName" validate:"required,max=50"`
	DateOfBirth      datatypes.Date `gorm:"not null;index" json:"dateOfBirth"`
	Gender           Gender         `gorm:"size:10;not null" json:"gender" validate:"oneof=M F Other"`
	Phone            string         `gorm:"size:20" json:"phone,omitempty" validate:"max=20"`
	Email            string         `gorm:"size:120" json:"email,omitempty" validate:"omitempty,email,max=120"`
	Address          string         `gorm:"size:255" json:"address,omitempty" validate:"max=255"`
	City             string         `gorm:"size:50" json:"city,omitempty" validate:"max=50"`
	State            string         `gorm:"size:50" json:"state,omitempty" validate:"max=50"`
	ZipCode          string         `gorm:"size:10" json:"zipCode,omitempty" validate:"max=10"`
	EmergencyContact string         `gorm:"size:100" json:"emergencyContact,omitempty" validate:"max=100"`
	EmergencyPhone   string         `gorm:"size:20" json:"emergencyPhone,omitempty" validate:"max=20"`
	InsuranceID      string         `gorm:"size:100" json:"insuranceId,omitempty" validate:"max=100"`

	Comorbidities      datatypes.JSONSlice[string] `json:"comorbidities"`
	Allergies          datatypes.JSONSlice[string] `json:"allergies"`
	CurrentMedications datatypes.JSONMap           `json:"currentMedications"`

	AdmissionDate *time.Time `json:"admissionDate,omitempty"`
	DischargeDate *time.Time `json:"dischargeDate,omitempty"`
	IsActive      bool       `gorm:"default:true;index" json:"isActive"`
}

// NormalizeSet trims, deduplicates and sorts a set of labels so that
// comorbidities and allergies compare equal regardless of input order.
func NormalizeSet(values []string) datatypes.JSONSlice[string] {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return datatypes.JSONSlice[string](out)
}
