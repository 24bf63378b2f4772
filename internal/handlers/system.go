package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/utils"
)

// Version is reported by the info and health endpoints.
const Version = "1.0.0"

const serviceName = "Healthcare Risk Platform API"

// Pinger is anything whose liveness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the unauthenticated info and health endpoints.
type SystemHandler struct {
	DB     Pinger
	Redis  Pinger
	Config *config.Config
	Logger *zap.Logger
}

// NewSystemHandler creates a SystemHandler. redis may be nil when no cache
// is configured.
func NewSystemHandler(db Pinger, redis Pinger, cfg *config.Config, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{DB: db, Redis: redis, Config: cfg, Logger: logger}
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status      string    `json:"status"`
	Database    string    `json:"database"`
	Redis       string    `json:"redis"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Timestamp   time.Time `json:"timestamp"`
}

// Health runs SELECT 1 against the database. A failing database makes the
// service unhealthy; a failing cache only degrades it.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:      "healthy",
		Database:    "connected",
		Redis:       "not_configured",
		Version:     Version,
		Environment: h.Config.Environment,
		Timestamp:   time.Now().UTC(),
	}

	if h.Redis != nil {
		status.Redis = "connected"
		if err := h.Redis.Ping(ctx); err != nil {
			h.Logger.Warn("health check: redis unreachable", zap.Error(err))
			status.Redis = "disconnected"
			status.Status = "degraded"
		}
	}

	if err := h.DB.Ping(ctx); err != nil {
		h.Logger.Error("health check: database unreachable", zap.Error(err))
		status.Status = "unhealthy"
		status.Database = "disconnected"
		utils.ErrorWithData(c, http.StatusInternalServerError, "database unreachable", status)
		return
	}

	utils.Success(c, "Service is "+status.Status, status)
}

// Info describes the API and its compliance settings.
func (h *SystemHandler) Info(c *gin.Context) {
	utils.Success(c, serviceName, gin.H{
		"service":     serviceName,
		"version":     Version,
		"environment": h.Config.Environment,
		"endpoints": gin.H{
			"health":        "/api/health",
			"profile":       "/api/auth/profile",
			"users":         "/api/users",
			"patients":      "/api/patients",
			"vitals":        "/api/patients/:id/vitals",
			"labs":          "/api/patients/:id/labs",
			"risk":          "/api/patients/:id/risk",
			"alerts":        "/api/alerts",
			"interventions": "/api/patients/:id/interventions",
		},
		"compliance": gin.H{
			"hipaa_compliant":     h.Config.Compliance.HIPAACompliant,
			"gdpr_compliant":      h.Config.Compliance.GDPRCompliant,
			"data_retention_days": h.Config.Compliance.DataRetentionDays,
		},
	})
}
