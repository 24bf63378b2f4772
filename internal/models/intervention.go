package models

import "time"

// InterventionOutcome records how an intervention went
type InterventionOutcome string

const (
	OutcomeSuccessful   InterventionOutcome = "successful"
	OutcomeUnsuccessful InterventionOutcome = "unsuccessful"
	OutcomeOngoing      InterventionOutcome = "ongoing"
)

// Intervention is a clinical action taken for a patient.
type Intervention struct {
	BaseModel
	PatientID        string              `gorm:"size:36;not null;index:idx_interventions_patient_date,priority:1" json:"patientId" validate:"required"`
	InterventionType string              `gorm:"size:100;not null" json:"interventionType" validate:"required,max=100"`
	Description      string              `gorm:"type:text" json:"description,omitempty"`
	InterventionDate time.Time           `gorm:"not null;index:idx_interventions_patient_date,priority:2" json:"interventionDate"`
	Outcome          InterventionOutcome `gorm:"size:50" json:"outcome,omitempty" validate:"omitempty,oneof=successful unsuccessful ongoing"`
	ClinicianID      *string             `gorm:"size:36;index" json:"clinicianId,omitempty"`
	Notes            string              `gorm:"type:text" json:"notes,omitempty"`

	Patient   Patient `gorm:"foreignKey:PatientID" json:"-" validate:"-"`
	Clinician *User   `gorm:"foreignKey:ClinicianID" json:"-" validate:"-"`
}
