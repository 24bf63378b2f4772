package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"healthcare-risk-platform/internal/cache"
	"healthcare-risk-platform/internal/config"
	"healthcare-risk-platform/internal/handlers"
	"healthcare-risk-platform/internal/logger"
	"healthcare-risk-platform/internal/models"
	"healthcare-risk-platform/internal/routes"
	"healthcare-risk-platform/internal/store"
	"healthcare-risk-platform/internal/utils"
)

const serviceName = "healthcare-risk-platform"

func main() {
	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Healthcare risk platform API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal outside local development.
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createUserCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

func dbConfig(cfg *config.Config) models.DatabaseConfig {
	return models.DatabaseConfig{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		Debug:        cfg.Database.Debug,
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the schema and start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := models.InitDB(dbConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB(db)
	log.Info("database ready", zap.String("driver", cfg.Database.Driver))

	var patientCache store.PatientCache
	var redisPinger handlers.Pinger
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, running without patient cache", zap.Error(err))
		} else {
			defer func() { _ = client.Close() }()
			pc := cache.NewPatientCache(client, cfg.Redis.CacheTTL)
			patientCache, redisPinger = pc, pc
			log.Info("patient cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
		}
	}

	s := store.New(db, patientCache, log)
	router := routes.SetupRouter(routes.Options{
		Config: cfg,
		Store:  s,
		Logger: log,
		Redis:  redisPinger,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table, index and constraint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := models.InitDB(dbConfig(cfg))
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			closeDB(db)
			log.Info("migrations applied")
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var in store.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a platform user, typically the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := models.InitDB(dbConfig(cfg))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer closeDB(db)

			in.Role = models.Role(role)
			user, err := store.New(db, nil, log).CreateUser(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "login name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "admin, clinician or viewer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// tokenCmd signs a bearer token for a user after checking the password.
// It only runs in development.
func tokenCmd() *cobra.Command {
	var username, password string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a development access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if !cfg.IsDevelopment() {
				return fmt.Errorf("token is only available in development, not %s", cfg.Environment)
			}

			db, err := models.Open(dbConfig(cfg))
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer closeDB(db)

			user, err := store.New(db, nil, log).Authenticate(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			token, err := utils.GenerateAccessToken(user, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user to sign for")
	cmd.Flags().StringVar(&password, "password", "", "the user's password")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
