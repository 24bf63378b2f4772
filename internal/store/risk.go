package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// CreateRiskAssessment stores a computed score. A missing category is
// derived from the score. When the assessment triggers an alert, the alert is
// created in the same transaction and returned.
func (s *Store) CreateRiskAssessment(ctx context.Context, ra *models.RiskAssessment) (*models.Alert, error) {
	if ra.AssessmentDate.IsZero() {
		ra.AssessmentDate = time.Now().UTC()
	}
	if ra.RiskCategory == "" && ra.RiskScore >= 0 && ra.RiskScore <= 100 {
		ra.RiskCategory = models.CategoryForScore(ra.RiskScore)
	}
	if ra.ClinicalFactors == nil {
		ra.ClinicalFactors = datatypes.JSONMap{}
	}
	if err := validateStruct(ra); err != nil {
		return nil, err
	}

	var alert *models.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePatient(tx, ra.PatientID); err != nil {
			return err
		}
		if err := requireUser(tx, ra.CreatedBy); err != nil {
			return err
		}
		if err := insert(tx, ra); err != nil {
			return err
		}
		if !ra.AlertTriggered {
			return nil
		}
		alert = alertForAssessment(ra)
		return insert(tx, alert)
	})
	if err != nil {
		return nil, translate("create risk assessment", err)
	}

	if alert != nil {
		s.logger.Info("risk assessment raised alert",
			zap.String("patient_id", ra.PatientID),
			zap.String("assessment_id", ra.ID),
			zap.String("alert_id", alert.ID),
			zap.String("category", string(ra.RiskCategory)),
		)
	}
	return alert, nil
}

func alertForAssessment(ra *models.RiskAssessment) *models.Alert {
	alertType := models.AlertTypeWarning
	if ra.RiskCategory == models.RiskCritical {
		alertType = models.AlertTypeCritical
	}
	kind := ra.AssessmentType
	if kind == "" {
		kind = "risk"
	}
	message := ra.AlertMessage
	if message == "" {
		message = fmt.Sprintf("Risk score %.1f (%s)", ra.RiskScore, ra.RiskCategory)
	}
	return &models.Alert{
		PatientID: ra.PatientID,
		AlertType: alertType,
		Title:     fmt.Sprintf("Elevated %s risk", kind),
		Message:   message,
		Severity:  ra.RiskCategory,
		Status:    models.AlertStatusActive,
	}
}

// GetRiskAssessment loads an assessment by ID.
func (s *Store) GetRiskAssessment(ctx context.Context, id string) (*models.RiskAssessment, error) {
	var ra models.RiskAssessment
	if err := s.first(ctx, &ra, "risk assessment", id); err != nil {
		return nil, err
	}
	return &ra, nil
}

// ListRiskAssessments returns a patient's assessments, newest first.
func (s *Store) ListRiskAssessments(ctx context.Context, patientID string, page Page) ([]models.RiskAssessment, int64, error) {
	var out []models.RiskAssessment
	total, err := listByPatient(ctx, s.db, &out, &models.RiskAssessment{}, patientID, "assessment_date", page)
	if err != nil {
		return nil, 0, translate("list risk assessments", err)
	}
	return out, total, nil
}

// LatestRiskAssessment returns the patient's most recent assessment.
func (s *Store) LatestRiskAssessment(ctx context.Context, patientID string) (*models.RiskAssessment, error) {
	out, _, err := s.ListRiskAssessments(ctx, patientID, Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no risk assessment for patient %s", ErrNotFound, patientID)
	}
	return &out[0], nil
}
