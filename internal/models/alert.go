package models

import "time"

// AlertType classifies a clinical alert
type AlertType string

const (
	AlertTypeCritical AlertType = "critical"
	AlertTypeWarning  AlertType = "warning"
	AlertTypeInfo     AlertType = "info"
)

// AlertStatus is the lifecycle of an alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// CanTransitionTo reports whether an alert in status s may move to next.
// active -> acknowledged -> resolved, and active may resolve directly.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertStatusActive:
		return next == AlertStatusAcknowledged || next == AlertStatusResolved
	case AlertStatusAcknowledged:
		return next == AlertStatusResolved
	}
	return false
}

// Alert is a clinical notification about a patient.
type Alert struct {
	BaseModel
	PatientID      string       `gorm:"size:36;not null;index:idx_alerts_patient_created,priority:1" json:"patientId" validate:"required"`
	AlertType      AlertType    `gorm:"size:50;not null" json:"alertType" validate:"required,oneof=critical warning info"`
	Title          string       `gorm:"size:200;not null" json:"title" validate:"required,max=200"`
	Message        string       `gorm:"type:text" json:"message,omitempty"`
	Severity       RiskCategory `gorm:"size:20" json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status         AlertStatus  `gorm:"size:20;default:'active';index" json:"status" validate:"oneof=active acknowledged resolved"`
	AcknowledgedBy *string      `gorm:"size:36" json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time   `json:"acknowledgedAt,omitempty"`
	ResolvedAt     *time.Time   `json:"resolvedAt,omitempty"`

	Patient      Patient `gorm:"foreignKey:PatientID" json:"-" validate:"-"`
	Acknowledger *User   `gorm:"foreignKey:AcknowledgedBy" json:"-" validate:"-"`
}
