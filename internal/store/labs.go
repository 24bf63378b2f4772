package store

import (
	"context"

	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// LabResultUpdate carries changes to a lab result; nil fields are left alone.
type LabResultUpdate struct {
	TestValue     *float64
	Unit          *string
	ReferenceLow  *float64
	ReferenceHigh *float64
	LabName       *string
	Status        *models.LabStatus
	Notes         *string
}

func checkLabResult(l *models.LabResult) error {
	if err := validateStruct(l); err != nil {
		return err
	}
	if l.TestDate.IsZero() {
		return violation("testDate is required")
	}
	if l.ReferenceLow != nil && l.ReferenceHigh != nil && *l.ReferenceLow > *l.ReferenceHigh {
		return violation("referenceLow cannot exceed referenceHigh")
	}
	return nil
}

// CreateLabResult stores a lab result for an existing patient.
func (s *Store) CreateLabResult(ctx context.Context, l *models.LabResult) error {
	if l.Status == "" {
		l.Status = models.LabStatusPending
	}
	if err := checkLabResult(l); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePatient(tx, l.PatientID); err != nil {
			return err
		}
		return insert(tx, l)
	})
	return translate("create lab result", err)
}

// GetLabResult loads a lab result by ID.
func (s *Store) GetLabResult(ctx context.Context, id string) (*models.LabResult, error) {
	var l models.LabResult
	if err := s.first(ctx, &l, "lab result", id); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLabResults returns a patient's lab results, newest test first. An
// empty status lists every status.
func (s *Store) ListLabResults(ctx context.Context, patientID string, status models.LabStatus, page Page) ([]models.LabResult, int64, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if status != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("status = ?", status) })
	}
	var labs []models.LabResult
	total, err := listByPatient(ctx, s.db, &labs, &models.LabResult{}, patientID, "test_date", page, scopes...)
	if err != nil {
		return nil, 0, translate("list lab results", err)
	}
	return labs, total, nil
}

// UpdateLabResult applies changes. Status only moves forward.
func (s *Store) UpdateLabResult(ctx context.Context, id string, upd LabResultUpdate) (*models.LabResult, error) {
	var l models.LabResult
	if err := s.first(ctx, &l, "lab result", id); err != nil {
		return nil, err
	}
	if upd.Status != nil {
		if !l.Status.CanAdvanceTo(*upd.Status) {
			return nil, violation("lab status cannot move from %s to %s", l.Status, *upd.Status)
		}
		l.Status = *upd.Status
	}
	if upd.TestValue != nil {
		l.TestValue = upd.TestValue
	}
	if upd.Unit != nil {
		l.Unit = *upd.Unit
	}
	if upd.ReferenceLow != nil {
		l.ReferenceLow = upd.ReferenceLow
	}
	if upd.ReferenceHigh != nil {
		l.ReferenceHigh = upd.ReferenceHigh
	}
	if upd.LabName != nil {
		l.LabName = *upd.LabName
	}
	if upd.Notes != nil {
		l.Notes = *upd.Notes
	}
	if err := checkLabResult(&l); err != nil {
		return nil, err
	}
	if err := save(s.db.WithContext(ctx), &l); err != nil {
		return nil, translate("update lab result", err)
	}
	return &l, nil
}
