package models

import (
	"time"

	"gorm.io/gorm"
)

// LabStatus is the lifecycle of a lab result
type LabStatus string

const (
	LabStatusPending   LabStatus = "pending"
	LabStatusCompleted LabStatus = "completed"
	LabStatusReviewed  LabStatus = "reviewed"
)

var labStatusOrder = map[LabStatus]int{
	LabStatusPending:   0,
	LabStatusCompleted: 1,
	LabStatusReviewed:  2,
}

// Valid reports whether s is a known status.
func (s LabStatus) Valid() bool {
	_, ok := labStatusOrder[s]
	return ok
}

// CanAdvanceTo reports whether a result may move from s to next.
// Status only moves forward; staying put is allowed.
func (s LabStatus) CanAdvanceTo(next LabStatus) bool {
	from, ok := labStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := labStatusOrder[next]
	return ok && to >= from
}

// LabResult is a named test value with its reference range.
type LabResult struct {
	BaseModel
	PatientID     string    `gorm:"size:36;not null;index:idx_labs_patient_date,priority:1" json:"patientId" validate:"required"`
	TestName      string    `gorm:"size:100;not null" json:"testName" validate:"required,max=100"`
	TestValue     *float64  `json:"testValue,omitempty"`
	Unit          string    `gorm:"size:50" json:"unit,omitempty" validate:"max=50"`
	ReferenceLow  *float64  `json:"referenceLow,omitempty"`
	ReferenceHigh *float64  `json:"referenceHigh,omitempty"`
	TestDate      time.Time `gorm:"not null;index:idx_labs_patient_date,priority:2" json:"testDate"`
	LabName       string    `gorm:"size:100" json:"labName,omitempty" validate:"max=100"`
	Status        LabStatus `gorm:"size:20;default:'pending';index" json:"status" validate:"oneof=pending completed reviewed"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`

	IsAbnormal bool `gorm:"-" json:"isAbnormal"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"-" validate:"-"`
}

// Abnormal reports whether the value lies outside the reference range.
// Missing bounds are open.
func (l *LabResult) Abnormal() bool {
	if l.TestValue == nil {
		return false
	}
	v := *l.TestValue
	if l.ReferenceLow != nil && v < *l.ReferenceLow {
		return true
	}
	if l.ReferenceHigh != nil && v > *l.ReferenceHigh {
		return true
	}
	return false
}

// AfterFind fills the derived abnormal flag.
func (l *LabResult) AfterFind(tx *gorm.DB) error {
	l.IsAbnormal = l.Abnormal()
	return nil
}

// AfterSave keeps the derived flag current after create and update.
func (l *LabResult) AfterSave(tx *gorm.DB) error {
	l.IsAbnormal = l.Abnormal()
	return nil
}
