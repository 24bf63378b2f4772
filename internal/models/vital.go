package models

import "time"

// Vital is a timestamped physiologic measurement. Every measurement is
// optional; a present value must lie in its plausible range. Temperature is
// Celsius, glucose mg/dL, weight kg.
type Vital struct {
	BaseModel
	PatientID        string    `gorm:"size:36;not null;index:idx_vitals_patient_time,priority:1" json:"patientId" validate:"required"`
	MeasurementTime  time.Time `gorm:"not null;index:idx_vitals_patient_time,priority:2" json:"measurementTime"`
	HeartRate        *int      `gorm:"check:chk_vitals_heart_rate,heart_rate >= 0 AND heart_rate <= 300" json:"heartRate,omitempty" validate:"omitempty,min=0,max=300"`
	SystolicBP       *int      `gorm:"column:systolic_bp;check:chk_vitals_systolic_bp,systolic_bp >= 50 AND systolic_bp <= 300" json:"systolicBp,omitempty" validate:"omitempty,min=50,max=300"`
	DiastolicBP      *int      `gorm:"column:diastolic_bp;check:chk_vitals_diastolic_bp,diastolic_bp >= 30 AND diastolic_bp <= 200" json:"diastolicBp,omitempty" validate:"omitempty,min=30,max=200"`
	RespiratoryRate  *int      `json:"respiratoryRate,omitempty" validate:"omitempty,min=0,max=100"`
	Temperature      *float64  `json:"temperature,omitempty" validate:"omitempty,min=25,max=45"`
	OxygenSaturation *float64  `json:"oxygenSaturation,omitempty" validate:"omitempty,min=0,max=100"`
	BloodGlucose     *float64  `json:"bloodGlucose,omitempty" validate:"omitempty,min=0"`
	Weight           *float64  `json:"weight,omitempty" validate:"omitempty,min=0"`

	Patient Patient `gorm:"foreignKey:PatientID" json:"-" validate:"-"`
}
