package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/models"
)

// PatientUpdate carries optional changes; nil fields are left alone.
type PatientUpdate struct {
	MRN                *string
	FirstName          *string
	LastName           *string
	DateOfBirth        *time.Time
	Gender             *models.Gender
	Phone              *string
	Email              *string
	Address            *string
	City               *string
	State              *string
	ZipCode            *string
	EmergencyContact   *string
	EmergencyPhone     *string
	InsuranceID        *string
	Comorbidities      []string
	Allergies          []string
	CurrentMedications map[string]interface{}
	AdmissionDate      *time.Time
}

// PatientFilter narrows ListPatients. Search matches MRN or either name.
type PatientFilter struct {
	ActiveOnly bool
	Search     string
}

func preparePatient(p *models.Patient) error {
	p.MRN = strings.TrimSpace(p.MRN)
	p.Comorbidities = models.NormalizeSet(p.Comorbidities)
	p.Allergies = models.NormalizeSet(p.Allergies)
	if p.CurrentMedications == nil {
		p.CurrentMedications = datatypes.JSONMap{}
	}
	if err := validateStruct(p); err != nil {
		return err
	}
	if time.Time(p.DateOfBirth).IsZero() {
		return violation("dateOfBirth is required")
	}
	if time.Time(p.DateOfBirth).After(time.Now()) {
		return violation("dateOfBirth cannot be in the future")
	}
	if p.AdmissionDate != nil && p.DischargeDate != nil && p.DischargeDate.Before(*p.AdmissionDate) {
		return violation("dischargeDate cannot precede admissionDate")
	}
	return nil
}

// CreatePatient registers a patient. The MRN must be unused.
func (s *Store) CreatePatient(ctx context.Context, p *models.Patient) error {
	p.IsActive = true
	if err := preparePatient(p); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureMRNUnique(tx, p.MRN, ""); err != nil {
			return err
		}
		return insert(tx, p)
	})
	if err != nil {
		return translate("create patient", err)
	}
	s.logger.Info("patient created", zap.String("patient_id", p.ID))
	return nil
}

func ensureMRNUnique(tx *gorm.DB, mrn, exceptID string) error {
	q := tx.Model(&models.Patient{}).Where("mrn = ?", mrn)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check mrn: %w", err)
	}
	if n > 0 {
		return violation("mrn %q is already in use", mrn)
	}
	return nil
}

// GetPatient loads a patient by ID, through the cache when one is configured.
func (s *Store) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("patient cache read failed", zap.String("patient_id", id), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	var p models.Patient
	if err := s.first(ctx, &p, "patient", id); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, &p); err != nil {
			s.logger.Warn("patient cache write failed", zap.String("patient_id", id), zap.Error(err))
		}
	}
	return &p, nil
}

// GetPatientByMRN loads a patient by medical record number.
func (s *Store) GetPatientByMRN(ctx context.Context, mrn string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Where("mrn = ?", strings.TrimSpace(mrn)).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("patient with mrn", mrn)
		}
		return nil, translate("get patient", err)
	}
	return &p, nil
}

// likeEscaper escapes LIKE wildcards in search input, with '!' as the
// escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListPatients returns one page of patients ordered by name, and the total count.
func (s *Store) ListPatients(ctx context.Context, filter PatientFilter, page Page) ([]models.Patient, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Patient{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where("LOWER(mrn) LIKE ? ESCAPE '!' OR LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!'", like, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count patients", err)
	}
	var patients []models.Patient
	if err := page.apply(q.Order("last_name asc, first_name asc")).Find(&patients).Error; err != nil {
		return nil, 0, translate("list patients", err)
	}
	return patients, total, nil
}

// UpdatePatient applies the non-nil fields of upd. A changed MRN must be unused.
func (s *Store) UpdatePatient(ctx context.Context, id string, upd PatientUpdate) (*models.Patient, error) {
	var p models.Patient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("patient", id)
			}
			return err
		}
		if upd.MRN != nil {
			mrn := strings.TrimSpace(*upd.MRN)
			if mrn != p.MRN {
				if err := ensureMRNUnique(tx, mrn, p.ID); err != nil {
					return err
				}
				p.MRN = mrn
			}
		}
		applyPatientUpdate(&p, upd)
		if err := preparePatient(&p); err != nil {
			return err
		}
		return save(tx, &p)
	})
	if err != nil {
		return nil, translate("update patient", err)
	}
	s.invalidate(ctx, p.ID)
	return &p, nil
}

func applyPatientUpdate(p *models.Patient, upd PatientUpdate) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&p.FirstName, upd.FirstName)
	setString(&p.LastName, upd.LastName)
	setString(&p.Phone, upd.Phone)
	setString(&p.Email, upd.Email)
	setString(&p.Address, upd.Address)
	setString(&p.City, upd.City)
	setString(&p.State, upd.State)
	setString(&p.ZipCode, upd.ZipCode)
	setString(&p.EmergencyContact, upd.EmergencyContact)
	setString(&p.EmergencyPhone, upd.EmergencyPhone)
	setString(&p.InsuranceID, upd.InsuranceID)

	if upd.DateOfBirth != nil {
		p.DateOfBirth = datatypes.Date(*upd.DateOfBirth)
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	if upd.Comorbidities != nil {
		p.Comorbidities = upd.Comorbidities
	}
	if upd.Allergies != nil {
		p.Allergies = upd.Allergies
	}
	if upd.CurrentMedications != nil {
		p.CurrentMedications = upd.CurrentMedications
	}
	if upd.AdmissionDate != nil {
		p.AdmissionDate = upd.AdmissionDate
	}
}

// DischargePatient records the discharge time. It cannot precede admission.
func (s *Store) DischargePatient(ctx context.Context, id string, at time.Time) (*models.Patient, error) {
	var p models.Patient
	if err := s.first(ctx, &p, "patient", id); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if p.AdmissionDate != nil && at.Before(*p.AdmissionDate) {
		return nil, violation("dischargeDate cannot precede admissionDate")
	}
	p.DischargeDate = &at
	if err := save(s.db.WithContext(ctx), &p); err != nil {
		return nil, translate("discharge patient", err)
	}
	s.invalidate(ctx, p.ID)
	return &p, nil
}

// DeactivatePatient hides a patient from active lists. Clinical records are kept.
func (s *Store) DeactivatePatient(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	if err := s.first(ctx, &p, "patient", id); err != nil {
		return nil, err
	}
	if p.IsActive {
		p.IsActive = false
		if err := save(s.db.WithContext(ctx), &p); err != nil {
			return nil, translate("deactivate patient", err)
		}
		s.logger.Info("patient deactivated", zap.String("patient_id", p.ID))
	}
	s.invalidate(ctx, p.ID)
	return &p, nil
}

func (s *Store) invalidate(ctx context.Context, patientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, patientID); err != nil {
		s.logger.Warn("patient cache invalidation failed", zap.String("patient_id", patientID), zap.Error(err))
	}
}
