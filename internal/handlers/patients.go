package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

const dateLayout = "2006-01-02"

// PatientHandler handles patient demographics.
type PatientHandler struct {
	base
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{base: newBase(s, cfg, logger)}
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	MRN                string                 `json:"mrn" binding:"required,max=50"`
	FirstName          string                 `json:"firstName" binding:"required,max=50"`
	LastName           string                 `json:"lastName" binding:"required,max=50"`
	DateOfBirth        string                 `json:"dateOfBirth" binding:"required,datetime=2006-01-02"`
	Gender             string                 `json:"gender" binding:"required,oneof=M F Other"`
	Phone              string                 `json:"phone" binding:"max=20"`
	Email              string                 `json:"email" binding:"omitempty,email,max=120"`
	Address            string                 `json:"address" binding:"max=255"`
	City               string                 `json:"city" binding:"max=50"`
	State              string                 `json:"state" binding:"max=50"`
	ZipCode            string                 `json:"zipCode" binding:"max=10"`
	EmergencyContact   string                 `json:"emergencyContact" binding:"max=100"`
	EmergencyPhone     string                 `json:"emergencyPhone" binding:"max=20"`
	InsuranceID        string                 `json:"insuranceId" binding:"max=100"`
	Comorbidities      []string               `json:"comorbidities"`
	Allergies          []string               `json:"allergies"`
	CurrentMedications map[string]interface{} `json:"currentMedications"`
	AdmissionDate      *time.Time             `json:"admissionDate"`
}

// CreatePatient handles registering a patient.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		utils.BadRequest(c, "dateOfBirth must be YYYY-MM-DD")
		return
	}

	patient := &models.Patient{
		MRN:                req.MRN,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		DateOfBirth:        datatypes.Date(dob),
		Gender:             models.Gender(req.Gender),
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		City:               req.City,
		State:              req.State,
		ZipCode:            req.ZipCode,
		EmergencyContact:   req.EmergencyContact,
		EmergencyPhone:     req.EmergencyPhone,
		InsuranceID:        req.InsuranceID,
		Comorbidities:      req.Comorbidities,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		AdmissionDate:      req.AdmissionDate,
	}
	if err := h.Store.CreatePatient(c.Request.Context(), patient); err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients handles listing patients. Query: search, include_inactive.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	filter := store.PatientFilter{ActiveOnly: true, Search: c.Query("search")}
	if raw := c.Query("include_inactive"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(c, "include_inactive must be true or false")
			return
		}
		filter.ActiveOnly = !include
	}

	patients, total, err := h.Store.ListPatients(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patients fetched successfully", utils.Paged(patients, meta, total))
}

// GetPatientByID handles fetching a patient by ID.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	patient, err := h.Store.GetPatient(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// GetPatientByMRN handles fetching a patient by medical record number.
func (h *PatientHandler) GetPatientByMRN(c *gin.Context) {
	patient, err := h.Store.GetPatientByMRN(c.Request.Context(), c.Param("mrn"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatientRequest represents the request body for updating a patient.
// Absent fields are left unchanged.
type UpdatePatientRequest struct {
	MRN                *string                `json:"mrn" binding:"omitempty,max=50"`
	FirstName          *string                `json:"firstName" binding:"omitempty,max=50"`
	LastName           *string                `json:"lastName" binding:"omitempty,max=50"`
	DateOfBirth        *string                `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Gender             *string                `json:"gender" binding:"omitempty,oneof=M F Other"`
	Phone              *string                `json:"phone" binding:"omitempty,max=20"`
	Email              *string                `json:"email" binding:"omitempty,email,max=120"`
	Address            *string                `json:"address" binding:"omitempty,max=255"`
	City               *string                `json:"city" binding:"omitempty,max=50"`
	State              *string                `json:"state" binding:"omitempty,max=50"`
	ZipCode            *string                `json:"zipCode" binding:"omitempty,max=10"`
	EmergencyContact   *string                `json:"emergencyContact" binding:"omitempty,max=100"`
	EmergencyPhone     *string                `json:"emergencyPhone" binding:"omitempty,max=20"`
	InsuranceID        *string                `json:"insuranceId" binding:"omitempty,max=100"`
	Comorbidities      []string               `json:"comorbidities"`
	Allergies          []string               `json:"allergies"`
	CurrentMedications map[string]interface{} `json:"currentMedications"`
	AdmissionDate      *time.Time             `json:"admissionDate"`
}

// UpdatePatient handles updating a patient.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	id, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req UpdatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	upd := store.PatientUpdate{
		MRN:                req.MRN,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		City:               req.City,
		State:              req.State,
		ZipCode:            req.ZipCode,
		EmergencyContact:   req.EmergencyContact,
		EmergencyPhone:     req.EmergencyPhone,
		InsuranceID:        req.InsuranceID,
		Comorbidities:      req.Comorbidities,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		AdmissionDate:      req.AdmissionDate,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *req.DateOfBirth)
		if err != nil {
			utils.BadRequest(c, "dateOfBirth must be YYYY-MM-DD")
			return
		}
		upd.DateOfBirth = &dob
	}
	if req.Gender != nil {
		gender := models.Gender(*req.Gender)
		upd.Gender = &gender
	}

	patient, err := h.Store.UpdatePatient(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patient updated successfully", patient)
}

// DischargePatientRequest carries an optional discharge time; now when absent.
type DischargePatientRequest struct {
	DischargeDate *time.Time `json:"dischargeDate"`
}

// DischargePatient handles recording a discharge.
func (h *PatientHandler) DischargePatient(c *gin.Context) {
	id, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req DischargePatientRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}
	var at time.Time
	if req.DischargeDate != nil {
		at = req.DischargeDate.UTC()
	}

	patient, err := h.Store.DischargePatient(c.Request.Context(), id, at)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patient discharged successfully", patient)
}

// DeactivatePatient handles DELETE on a patient. Records are kept.
func (h *PatientHandler) DeactivatePatient(c *gin.Context) {
	id, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	patient, err := h.Store.DeactivatePatient(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Patient deactivated successfully", patient)
}
