package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/middleware"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// InterventionHandler handles clinical interventions.
type InterventionHandler struct {
	base
}

// NewInterventionHandler creates a new InterventionHandler.
func NewInterventionHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *InterventionHandler {
	return &InterventionHandler{base: newBase(s, cfg, logger)}
}

// CreateInterventionRequest represents the request body for an intervention.
// ClinicianID defaults to the current user.
type CreateInterventionRequest struct {
	InterventionType string     `json:"interventionType" binding:"required,max=100"`
	Description      string     `json:"description"`
	InterventionDate *time.Time `json:"interventionDate"`
	Outcome          string     `json:"outcome" binding:"omitempty,oneof=successful unsuccessful ongoing"`
	ClinicianID      *string    `json:"clinicianId" binding:"omitempty,uuid"`
	Notes            string     `json:"notes"`
}

// CreateIntervention handles recording an intervention for the patient in the path.
func (h *InterventionHandler) CreateIntervention(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req CreateInterventionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	in := &models.Intervention{
		PatientID:        patientID,
		InterventionType: req.InterventionType,
		Description:      req.Description,
		Outcome:          models.InterventionOutcome(req.Outcome),
		ClinicianID:      req.ClinicianID,
		Notes:            req.Notes,
	}
	if req.InterventionDate != nil {
		in.InterventionDate = req.InterventionDate.UTC()
	} else {
		in.InterventionDate = time.Now().UTC()
	}
	if in.ClinicianID == nil {
		if userID, ok := middleware.GetUserIDFromContext(c); ok {
			in.ClinicianID = &userID
		}
	}

	if err := h.Store.CreateIntervention(c.Request.Context(), in); err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Intervention created successfully", in)
}

// GetPatientInterventions handles listing a patient's interventions.
func (h *InterventionHandler) GetPatientInterventions(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	out, total, err := h.Store.ListInterventions(c.Request.Context(), patientID, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Interventions fetched successfully", utils.Paged(out, meta, total))
}

// GetInterventionByID handles fetching an intervention.
func (h *InterventionHandler) GetInterventionByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Intervention")
	if !ok {
		return
	}
	in, err := h.Store.GetIntervention(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Intervention fetched successfully", in)
}

// UpdateOutcomeRequest represents the request body for recording an outcome.
type UpdateOutcomeRequest struct {
	Outcome string  `json:"outcome" binding:"required,oneof=successful unsuccessful ongoing"`
	Notes   *string `json:"notes"`
}

// UpdateOutcome handles recording an intervention's outcome.
func (h *InterventionHandler) UpdateOutcome(c *gin.Context) {
	id, ok := pathID(c, "id", "Intervention")
	if !ok {
		return
	}
	var req UpdateOutcomeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	in, err := h.Store.UpdateInterventionOutcome(c.Request.Context(), id, models.InterventionOutcome(req.Outcome), req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Intervention updated successfully", in)
}
