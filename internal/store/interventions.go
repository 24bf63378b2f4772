package store

import (
	"context"

	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// CreateIntervention records an action taken for a patient.
func (s *Store) CreateIntervention(ctx context.Context, in *models.Intervention) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.InterventionDate.IsZero() {
		return violation("interventionDate is required")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePatient(tx, in.PatientID); err != nil {
			return err
		}
		if err := requireUser(tx, in.ClinicianID); err != nil {
			return err
		}
		return insert(tx, in)
	})
	return translate("create intervention", err)
}

// GetIntervention loads an intervention by ID.
func (s *Store) GetIntervention(ctx context.Context, id string) (*models.Intervention, error) {
	var in models.Intervention
	if err := s.first(ctx, &in, "intervention", id); err != nil {
		return nil, err
	}
	return &in, nil
}

// ListInterventions returns a patient's interventions, newest first.
func (s *Store) ListInterventions(ctx context.Context, patientID string, page Page) ([]models.Intervention, int64, error) {
	var out []models.Intervention
	total, err := listByPatient(ctx, s.db, &out, &models.Intervention{}, patientID, "intervention_date", page)
	if err != nil {
		return nil, 0, translate("list interventions", err)
	}
	return out, total, nil
}

// UpdateInterventionOutcome records the outcome and, when notes is non-nil,
// replaces the notes.
func (s *Store) UpdateInterventionOutcome(ctx context.Context, id string, outcome models.InterventionOutcome, notes *string) (*models.Intervention, error) {
	var in models.Intervention
	if err := s.first(ctx, &in, "intervention", id); err != nil {
		return nil, err
	}
	in.Outcome = outcome
	if notes != nil {
		in.Notes = *notes
	}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if err := save(s.db.WithContext(ctx), &in); err != nil {
		return nil, translate("update intervention", err)
	}
	return &in, nil
}
