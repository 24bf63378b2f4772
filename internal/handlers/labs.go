package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// LabHandler handles lab results.
type LabHandler struct {
	base
}

// NewLabHandler creates a new LabHandler.
func NewLabHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *LabHandler {
	return &LabHandler{base: newBase(s, cfg, logger)}
}

// CreateLabRequest represents the request body for a new lab result.
type CreateLabRequest struct {
	TestName      string    `json:"testName" binding:"required,max=100"`
	TestValue     *float64  `json:"testValue"`
	Unit          string    `json:"unit" binding:"max=50"`
	ReferenceLow  *float64  `json:"referenceLow"`
	ReferenceHigh *float64  `json:"referenceHigh"`
	TestDate      time.Time `json:"testDate"`
	LabName       string    `json:"labName" binding:"max=100"`
	Status        string    `json:"status" binding:"omitempty,oneof=pending completed reviewed"`
	Notes         string    `json:"notes"`
}

// CreateLab handles adding a lab result for the patient in the path.
func (h *LabHandler) CreateLab(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req CreateLabRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	lab := &models.LabResult{
		PatientID:     patientID,
		TestName:      req.TestName,
		TestValue:     req.TestValue,
		Unit:          req.Unit,
		ReferenceLow:  req.ReferenceLow,
		ReferenceHigh: req.ReferenceHigh,
		TestDate:      req.TestDate.UTC(),
		LabName:       req.LabName,
		Status:        models.LabStatus(req.Status),
		Notes:         req.Notes,
	}
	if err := h.Store.CreateLabResult(c.Request.Context(), lab); err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Lab result created successfully", lab)
}

// GetPatientLabs handles listing a patient's lab results. Query: status.
func (h *LabHandler) GetPatientLabs(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	status := models.LabStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.BadRequest(c, "Unknown lab status: "+string(status))
		return
	}

	labs, total, err := h.Store.ListLabResults(c.Request.Context(), patientID, status, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Lab results fetched successfully", utils.Paged(labs, meta, total))
}

// GetLabByID handles fetching a lab result.
func (h *LabHandler) GetLabByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Lab result")
	if !ok {
		return
	}
	lab, err := h.Store.GetLabResult(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Lab result fetched successfully", lab)
}

// UpdateLabRequest represents the request body for updating a lab result.
type UpdateLabRequest struct {
	TestValue     *float64 `json:"testValue"`
	Unit          *string  `json:"unit" binding:"omitempty,max=50"`
	ReferenceLow  *float64 `json:"referenceLow"`
	ReferenceHigh *float64 `json:"referenceHigh"`
	LabName       *string  `json:"labName" binding:"omitempty,max=100"`
	Status        *string  `json:"status" binding:"omitempty,oneof=pending completed reviewed"`
	Notes         *string  `json:"notes"`
}

// UpdateLab handles updating a lab result. Status only moves forward.
func (h *LabHandler) UpdateLab(c *gin.Context) {
	id, ok := pathID(c, "id", "Lab result")
	if !ok {
		return
	}
	var req UpdateLabRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	upd := store.LabResultUpdate{
		TestValue:     req.TestValue,
		Unit:          req.Unit,
		ReferenceLow:  req.ReferenceLow,
		ReferenceHigh: req.ReferenceHigh,
		LabName:       req.LabName,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status := models.LabStatus(*req.Status)
		upd.Status = &status
	}

	lab, err := h.Store.UpdateLabResult(c.Request.Context(), id, upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Lab result updated successfully", lab)
}
