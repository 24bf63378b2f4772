package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskCategory buckets a risk score
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskMedium   RiskCategory = "medium"
	RiskHigh     RiskCategory = "high"
	RiskCritical RiskCategory = "critical"
)

// CategoryForScore maps a score in [0,100] to its category.
func CategoryForScore(score float64) RiskCategory {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// RiskAssessment is a computed risk score attributed to the creating user.
type RiskAssessment struct {
	BaseModel
	PatientID       string            `gorm:"size:36;not null;index:idx_risk_patient_date,priority:1" json:"patientId" validate:"required"`
	AssessmentDate  time.Time         `gorm:"not null;index:idx_risk_patient_date,priority:2" json:"assessmentDate"`
	RiskScore       float64           `gorm:"not null;check:chk_risk_score,risk_score >= 0 AND risk_score <= 100" json:"riskScore" validate:"min=0,max=100"`
	RiskCategory    RiskCategory      `gorm:"size:20" json:"riskCategory" validate:"omitempty,oneof=low medium high critical"`
	ClinicalFactors datatypes.JSONMap `json:"clinicalFactors"`
	AlertTriggered  bool              `gorm:"default:false" json:"alertTriggered"`
	AlertMessage    string            `gorm:"type:text" json:"alertMessage,omitempty"`
	AssessmentType  string            `gorm:"size:50" json:"assessmentType,omitempty" validate:"max=50"`
	CreatedBy       *string           `gorm:"size:36;index" json:"createdBy,omitempty"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"-" validate:"-"`
	Creator *User   `gorm:"foreignKey:CreatedBy" json:"-" validate:"-"`
}
