package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/middleware"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// AlertHandler handles clinical alerts.
type AlertHandler struct {
	base
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{base: newBase(s, cfg, logger)}
}

// CreateAlertRequest represents the request body for raising an alert.
type CreateAlertRequest struct {
	AlertType string `json:"alertType" binding:"required,oneof=critical warning info"`
	Title     string `json:"title" binding:"required,max=200"`
	Message   string `json:"message"`
	Severity  string `json:"severity" binding:"omitempty,oneof=low medium high critical"`
}

// CreateAlert handles raising an alert for the patient in the path.
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req CreateAlertRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	alert := &models.Alert{
		PatientID: patientID,
		AlertType: models.AlertType(req.AlertType),
		Title:     req.Title,
		Message:   req.Message,
		Severity:  models.RiskCategory(req.Severity),
	}
	if err := h.Store.CreateAlert(c.Request.Context(), alert); err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Alert created successfully", alert)
}

// GetAlerts handles listing alerts across patients. Query: status, patient_id.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	filter := store.AlertFilter{Status: models.AlertStatus(c.Query("status"))}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequest(c, "patient_id must be a UUID")
			return
		}
		filter.PatientID = id.String()
	}
	h.list(c, filter)
}

// GetPatientAlerts handles listing the alerts of the patient in the path.
// Query: status.
func (h *AlertHandler) GetPatientAlerts(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	h.list(c, store.AlertFilter{PatientID: patientID, Status: models.AlertStatus(c.Query("status"))})
}

func (h *AlertHandler) list(c *gin.Context, filter store.AlertFilter) {
	if filter.Status != "" && !filter.Status.Valid() {
		utils.BadRequest(c, "Unknown alert status: "+string(filter.Status))
		return
	}
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	alerts, total, err := h.Store.ListAlerts(c.Request.Context(), filter, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Alerts fetched successfully", utils.Paged(alerts, meta, total))
}

// GetAlertByID handles fetching an alert.
func (h *AlertHandler) GetAlertByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Alert")
	if !ok {
		return
	}
	alert, err := h.Store.GetAlert(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Alert fetched successfully", alert)
}

// AcknowledgeAlert handles acknowledging an alert as the current user.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	id, ok := pathID(c, "id", "Alert")
	if !ok {
		return
	}
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	alert, err := h.Store.AcknowledgeAlert(c.Request.Context(), id, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Alert acknowledged successfully", alert)
}

// ResolveAlert handles resolving an alert.
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	id, ok := pathID(c, "id", "Alert")
	if !ok {
		return
	}
	alert, err := h.Store.ResolveAlert(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Alert resolved successfully", alert)
}
