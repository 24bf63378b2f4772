// Package store is the clinical records store: every read and write of
// users, patients and clinical records goes through it, and it enforces the
// range, reference, uniqueness and lifecycle rules before the database does.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthcare-risk-platform/internal/models"
)

// PatientCache is an optional read-through cache for patients by ID.
type PatientCache interface {
	Get(ctx context.Context, id string) (*models.Patient, bool, error)
	Set(ctx context.Context, patient *models.Patient) error
	Invalidate(ctx context.Context, id string) error
}

// Page limits a list query.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		db = db.Limit(p.Limit)
	}
	if p.Offset > 0 {
		db = db.Offset(p.Offset)
	}
	return db
}

// Store is safe for concurrent use.
type Store struct {
	db     *gorm.DB
	cache  PatientCache
	logger *zap.Logger
}

// New creates a Store. cache may be nil.
func New(db *gorm.DB, cache PatientCache, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, cache: cache, logger: logger}
}

// Ping checks the database with a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// insert writes a new row without touching associations.
func insert(tx *gorm.DB, value interface{}) error {
	return tx.Omit(clause.Associations).Create(value).Error
}

// save rewrites an existing row without touching associations.
func save(tx *gorm.DB, value interface{}) error {
	return tx.Omit(clause.Associations).Save(value).Error
}

func requirePatient(tx *gorm.DB, id string) error {
	if id == "" {
		return violation("patientId is required")
	}
	var n int64
	if err := tx.Model(&models.Patient{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check patient: %w", err)
	}
	if n == 0 {
		return notFound("patient", id)
	}
	return nil
}

// requireUser checks an optional user reference; nil passes.
func requireUser(tx *gorm.DB, id *string) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return notFound("user", *id)
	}
	return nil
}

func (s *Store) first(ctx context.Context, dest interface{}, entity, id string) error {
	if err := s.db.WithContext(ctx).First(dest, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return notFound(entity, id)
		}
		return translate("get "+entity, err)
	}
	return nil
}

// listByPatient loads one page of a patient's records, newest first by
// orderColumn. scopes add filters to the record query only.
func listByPatient(ctx context.Context, db *gorm.DB, dest interface{}, model interface{}, patientID, orderColumn string, page Page, scopes ...func(*gorm.DB) *gorm.DB) (int64, error) {
	if err := requirePatient(db.WithContext(ctx), patientID); err != nil {
		return 0, err
	}
	q := db.WithContext(ctx).Model(model).Where("patient_id = ?", patientID).Scopes(scopes...).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := page.apply(q.Order(orderColumn + " desc")).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
