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

// RiskHandler handles risk assessments.
type RiskHandler struct {
	base
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *RiskHandler {
	return &RiskHandler{base: newBase(s, cfg, logger)}
}

// CreateRiskRequest represents the request body for a risk assessment.
type CreateRiskRequest struct {
	RiskScore       *float64               `json:"riskScore" binding:"required"`
	RiskCategory    string                 `json:"riskCategory" binding:"omitempty,oneof=low medium high critical"`
	AssessmentDate  *time.Time             `json:"assessmentDate"`
	ClinicalFactors map[string]interface{} `json:"clinicalFactors"`
	AlertTriggered  bool                   `json:"alertTriggered"`
	AlertMessage    string                 `json:"alertMessage"`
	AssessmentType  string                 `json:"assessmentType" binding:"max=50"`
}

// RiskAssessmentResponse pairs an assessment with the alert it raised, if any.
type RiskAssessmentResponse struct {
	Assessment *models.RiskAssessment `json:"assessment"`
	Alert      *models.Alert          `json:"alert,omitempty"`
}

// CreateRisk handles storing a risk assessment for the patient in the path,
// attributed to the current user.
func (h *RiskHandler) CreateRisk(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req CreateRiskRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ra := &models.RiskAssessment{
		PatientID:       patientID,
		RiskScore:       *req.RiskScore,
		RiskCategory:    models.RiskCategory(req.RiskCategory),
		ClinicalFactors: req.ClinicalFactors,
		AlertTriggered:  req.AlertTriggered,
		AlertMessage:    req.AlertMessage,
		AssessmentType:  req.AssessmentType,
	}
	if req.AssessmentDate != nil {
		ra.AssessmentDate = req.AssessmentDate.UTC()
	}
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		ra.CreatedBy = &userID
	}

	alert, err := h.Store.CreateRiskAssessment(c.Request.Context(), ra)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Risk assessment created successfully", RiskAssessmentResponse{Assessment: ra, Alert: alert})
}

// GetPatientRisk handles listing a patient's risk assessments, newest first.
func (h *RiskHandler) GetPatientRisk(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	out, total, err := h.Store.ListRiskAssessments(c.Request.Context(), patientID, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Risk assessments fetched successfully", utils.Paged(out, meta, total))
}

// GetLatestRisk handles fetching a patient's most recent assessment.
func (h *RiskHandler) GetLatestRisk(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	ra, err := h.Store.LatestRiskAssessment(c.Request.Context(), patientID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Risk assessment fetched successfully", ra)
}

// GetRiskByID handles fetching a risk assessment.
func (h *RiskHandler) GetRiskByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Risk assessment")
	if !ok {
		return
	}
	ra, err := h.Store.GetRiskAssessment(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Risk assessment fetched successfully", ra)
}
