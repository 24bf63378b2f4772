package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// VitalUpdate carries corrections to a recorded vital; nil fields are left alone.
type VitalUpdate struct {
	MeasurementTime  *time.Time
	HeartRate        *int
	SystolicBP       *int
	DiastolicBP      *int
	RespiratoryRate  *int
	Temperature      *float64
	OxygenSaturation *float64
	BloodGlucose     *float64
	Weight           *float64
}

// RecordVital stores a measurement for an existing patient.
func (s *Store) RecordVital(ctx context.Context, v *models.Vital) error {
	if v.MeasurementTime.IsZero() {
		v.MeasurementTime = time.Now().UTC()
	}
	if err := validateStruct(v); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePatient(tx, v.PatientID); err != nil {
			return err
		}
		return insert(tx, v)
	})
	return translate("record vital", err)
}

// GetVital loads a vital by ID.
func (s *Store) GetVital(ctx context.Context, id string) (*models.Vital, error) {
	var v models.Vital
	if err := s.first(ctx, &v, "vital", id); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVitals returns a patient's vitals, newest measurement first.
func (s *Store) ListVitals(ctx context.Context, patientID string, page Page) ([]models.Vital, int64, error) {
	var vitals []models.Vital
	total, err := listByPatient(ctx, s.db, &vitals, &models.Vital{}, patientID, "measurement_time", page)
	if err != nil {
		return nil, 0, translate("list vitals", err)
	}
	return vitals, total, nil
}

// UpdateVital corrects a measurement. Ranges are checked again.
func (s *Store) UpdateVital(ctx context.Context, id string, upd VitalUpdate) (*models.Vital, error) {
	var v models.Vital
	if err := s.first(ctx, &v, "vital", id); err != nil {
		return nil, err
	}
	if upd.MeasurementTime != nil {
		v.MeasurementTime = *upd.MeasurementTime
	}
	if upd.HeartRate != nil {
		v.HeartRate = upd.HeartRate
	}
	if upd.SystolicBP != nil {
		v.SystolicBP = upd.SystolicBP
	}
	if upd.DiastolicBP != nil {
		v.DiastolicBP = upd.DiastolicBP
	}
	if upd.RespiratoryRate != nil {
		v.RespiratoryRate = upd.RespiratoryRate
	}
	if upd.Temperature != nil {
		v.Temperature = upd.Temperature
	}
	if upd.OxygenSaturation != nil {
		v.OxygenSaturation = upd.OxygenSaturation
	}
	if upd.BloodGlucose != nil {
		v.BloodGlucose = upd.BloodGlucose
	}
	if upd.Weight != nil {
		v.Weight = upd.Weight
	}
	if err := validateStruct(&v); err != nil {
		return nil, err
	}
	if err := save(s.db.WithContext(ctx), &v); err != nil {
		return nil, translate("update vital", err)
	}
	return &v, nil
}
