package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// AlertFilter narrows ListAlerts. Empty fields match everything.
type AlertFilter struct {
	PatientID string
	Status    models.AlertStatus
}

// CreateAlert raises an active alert for an existing patient.
func (s *Store) CreateAlert(ctx context.Context, a *models.Alert) error {
	a.Status = models.AlertStatusActive
	a.AcknowledgedBy, a.AcknowledgedAt, a.ResolvedAt = nil, nil, nil
	if err := validateStruct(a); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePatient(tx, a.PatientID); err != nil {
			return err
		}
		return insert(tx, a)
	})
	if err != nil {
		return translate("create alert", err)
	}
	s.logger.Info("alert raised",
		zap.String("alert_id", a.ID),
		zap.String("patient_id", a.PatientID),
		zap.String("type", string(a.AlertType)),
	)
	return nil
}

// GetAlert loads an alert by ID.
func (s *Store) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	var a models.Alert
	if err := s.first(ctx, &a, "alert", id); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns alerts newest first.
func (s *Store) ListAlerts(ctx context.Context, filter AlertFilter, page Page) ([]models.Alert, int64, error) {
	if filter.PatientID != "" {
		if err := requirePatient(s.db.WithContext(ctx), filter.PatientID); err != nil {
			return nil, 0, err
		}
	}
	q := s.db.WithContext(ctx).Model(&models.Alert{})
	if filter.PatientID != "" {
		q = q.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count alerts", err)
	}
	var alerts []models.Alert
	if err := page.apply(q.Order("created_at desc")).Find(&alerts).Error; err != nil {
		return nil, 0, translate("list alerts", err)
	}
	return alerts, total, nil
}

// AcknowledgeAlert moves an active alert to acknowledged and records who did it.
func (s *Store) AcknowledgeAlert(ctx context.Context, id, userID string) (*models.Alert, error) {
	return s.transitionAlert(ctx, id, models.AlertStatusAcknowledged, func(tx *gorm.DB, a *models.Alert, now time.Time) error {
		if err := requireUser(tx, &userID); err != nil {
			return err
		}
		a.AcknowledgedBy = &userID
		a.AcknowledgedAt = &now
		return nil
	})
}

// ResolveAlert closes an active or acknowledged alert.
func (s *Store) ResolveAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.transitionAlert(ctx, id, models.AlertStatusResolved, func(_ *gorm.DB, a *models.Alert, now time.Time) error {
		a.ResolvedAt = &now
		return nil
	})
}

func (s *Store) transitionAlert(ctx context.Context, id string, next models.AlertStatus, apply func(*gorm.DB, *models.Alert, time.Time) error) (*models.Alert, error) {
	var a models.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("alert", id)
			}
			return err
		}
		if !a.Status.CanTransitionTo(next) {
			return violation("alert cannot move from %s to %s", a.Status, next)
		}
		if err := apply(tx, &a, time.Now().UTC()); err != nil {
			return err
		}
		a.Status = next
		return save(tx, &a)
	})
	if err != nil {
		return nil, translate("update alert", err)
	}
	s.logger.Info("alert status changed", zap.String("alert_id", a.ID), zap.String("status", string(next)))
	return &a, nil
}
