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

// VitalHandler handles vital sign measurements.
type VitalHandler struct {
	base
}

// NewVitalHandler creates a new VitalHandler.
func NewVitalHandler(s *store.Store, cfg *config.Config, logger *zap.Logger) *VitalHandler {
	return &VitalHandler{base: newBase(s, cfg, logger)}
}

// VitalRequest is the body for recording or correcting a vital. Ranges are
// checked by the store.
type VitalRequest struct {
	MeasurementTime  *time.Time `json:"measurementTime"`
	HeartRate        *int       `json:"heartRate"`
	SystolicBP       *int       `json:"systolicBp"`
	DiastolicBP      *int       `json:"diastolicBp"`
	RespiratoryRate  *int       `json:"respiratoryRate"`
	Temperature      *float64   `json:"temperature"`
	OxygenSaturation *float64   `json:"oxygenSaturation"`
	BloodGlucose     *float64   `json:"bloodGlucose"`
	Weight           *float64   `json:"weight"`
}

// CreateVital handles recording a vital for the patient in the path.
func (h *VitalHandler) CreateVital(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	var req VitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	vital := &models.Vital{
		PatientID:        patientID,
		HeartRate:        req.HeartRate,
		SystolicBP:       req.SystolicBP,
		DiastolicBP:      req.DiastolicBP,
		RespiratoryRate:  req.RespiratoryRate,
		Temperature:      req.Temperature,
		OxygenSaturation: req.OxygenSaturation,
		BloodGlucose:     req.BloodGlucose,
		Weight:           req.Weight,
	}
	if req.MeasurementTime != nil {
		vital.MeasurementTime = req.MeasurementTime.UTC()
	}
	if err := h.Store.RecordVital(c.Request.Context(), vital); err != nil {
		h.fail(c, err)
		return
	}
	utils.Created(c, "Vital recorded successfully", vital)
}

// GetPatientVitals handles listing a patient's vitals, newest first.
func (h *VitalHandler) GetPatientVitals(c *gin.Context) {
	patientID, ok := pathID(c, "id", "Patient")
	if !ok {
		return
	}
	page, meta, ok := h.page(c)
	if !ok {
		return
	}
	vitals, total, err := h.Store.ListVitals(c.Request.Context(), patientID, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Vitals fetched successfully", utils.Paged(vitals, meta, total))
}

// GetVitalByID handles fetching a vital.
func (h *VitalHandler) GetVitalByID(c *gin.Context) {
	id, ok := pathID(c, "id", "Vital")
	if !ok {
		return
	}
	vital, err := h.Store.GetVital(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Vital fetched successfully", vital)
}

// UpdateVital handles correcting a vital.
func (h *VitalHandler) UpdateVital(c *gin.Context) {
	id, ok := pathID(c, "id", "Vital")
	if !ok {
		return
	}
	var req VitalRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	vital, err := h.Store.UpdateVital(c.Request.Context(), id, store.VitalUpdate{
		MeasurementTime:  req.MeasurementTime,
		HeartRate:        req.HeartRate,
		SystolicBP:       req.SystolicBP,
		DiastolicBP:      req.DiastolicBP,
		RespiratoryRate:  req.RespiratoryRate,
		Temperature:      req.Temperature,
		OxygenSaturation: req.OxygenSaturation,
		BloodGlucose:     req.BloodGlucose,
		Weight:           req.Weight,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.Success(c, "Vital updated successfully", vital)
}
