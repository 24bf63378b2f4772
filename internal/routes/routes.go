package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/handlers"
	"healthcare-risk-platform/internal/middleware"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

// Options carries the collaborators SetupRouter wires together.
type Options struct {
	Config *config.Config
	Store  *store.Store
	Logger *zap.Logger
	// Redis is probed by the health endpoint; nil when no cache is configured.
	Redis handlers.Pinger
}

// SetupRouter builds the engine with middleware and every /api route.
func SetupRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(opts.Config.CORSOrigins)))
	router.NoRoute(func(c *gin.Context) {
		utils.NotFound(c, "The requested resource was not found")
	})

	SetupRoutes(router, opts.Store, opts.Redis, opts.Config, logger)
	return router
}

func corsConfig(origins []string) cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, s *store.Store, redis handlers.Pinger, cfg *config.Config, logger *zap.Logger) {
	systemHandler := handlers.NewSystemHandler(s, redis, cfg, logger)
	authHandler := handlers.NewAuthHandler(s, cfg, logger)
	userHandler := handlers.NewUserHandler(s, cfg, logger)
	patientHandler := handlers.NewPatientHandler(s, cfg, logger)
	vitalHandler := handlers.NewVitalHandler(s, cfg, logger)
	labHandler := handlers.NewLabHandler(s, cfg, logger)
	riskHandler := handlers.NewRiskHandler(s, cfg, logger)
	alertHandler := handlers.NewAlertHandler(s, cfg, logger)
	interventionHandler := handlers.NewInterventionHandler(s, cfg, logger)

	writers := middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleClinician)
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		public.GET("", systemHandler.Info)
		public.GET("/health", systemHandler.Health)
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret, s, logger))
	{
		authRoutes := private.Group("/auth")
		{
			authRoutes.GET("/profile", authHandler.GetProfile)
			authRoutes.PUT("/profile", authHandler.UpdateProfile)
		}

		userRoutes := private.Group("/users")
		userRoutes.Use(adminOnly)
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeactivateUser)
		}

		patientRoutes := private.Group("/patients")
		{
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.POST("", writers, patientHandler.CreatePatient)
			patientRoutes.GET("/mrn/:mrn", patientHandler.GetPatientByMRN)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", writers, patientHandler.UpdatePatient)
			patientRoutes.POST("/:id/discharge", writers, patientHandler.DischargePatient)
			patientRoutes.DELETE("/:id", adminOnly, patientHandler.DeactivatePatient)

			patientRoutes.GET("/:id/vitals", vitalHandler.GetPatientVitals)
			patientRoutes.POST("/:id/vitals", writers, vitalHandler.CreateVital)
			patientRoutes.GET("/:id/labs", labHandler.GetPatientLabs)
			patientRoutes.POST("/:id/labs", writers, labHandler.CreateLab)
			patientRoutes.GET("/:id/risk", riskHandler.GetPatientRisk)
			patientRoutes.GET("/:id/risk/latest", riskHandler.GetLatestRisk)
			patientRoutes.POST("/:id/risk", writers, riskHandler.CreateRisk)
			patientRoutes.GET("/:id/alerts", alertHandler.GetPatientAlerts)
			patientRoutes.POST("/:id/alerts", writers, alertHandler.CreateAlert)
			patientRoutes.GET("/:id/interventions", interventionHandler.GetPatientInterventions)
			patientRoutes.POST("/:id/interventions", writers, interventionHandler.CreateIntervention)
		}

		private.GET("/vitals/:id", vitalHandler.GetVitalByID)
		private.PUT("/vitals/:id", writers, vitalHandler.UpdateVital)

		private.GET("/labs/:id", labHandler.GetLabByID)
		private.PUT("/labs/:id", writers, labHandler.UpdateLab)

		private.GET("/risk/:id", riskHandler.GetRiskByID)

		alertRoutes := private.Group("/alerts")
		{
			alertRoutes.GET("", alertHandler.GetAlerts)
			alertRoutes.GET("/:id", alertHandler.GetAlertByID)
			alertRoutes.POST("/:id/acknowledge", writers, alertHandler.AcknowledgeAlert)
			alertRoutes.POST("/:id/resolve", writers, alertHandler.ResolveAlert)
		}

		private.GET("/interventions/:id", interventionHandler.GetInterventionByID)
		private.PUT("/interventions/:id/outcome", writers, interventionHandler.UpdateOutcome)
	}
}
