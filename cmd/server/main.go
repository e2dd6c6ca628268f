package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rongwang/property-rental-server/internal/api"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/config"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/repository"
	"github.com/rongwang/property-rental-server/internal/service"
	"github.com/rongwang/property-rental-server/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "property-rental-server",
		Short: "Property rental management server",
		RunE:  runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the schema and seed the lookup tables",
			RunE:  runMigrate,
		},
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads and checks the configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	utils.InitLogger(cfg.App.Name, cfg.App.LogLevel)
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}
	return db, nil
}

func newService(cfg *config.Config, db *sqlx.DB) (service.Service, *auth.TokenService, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, nil, err
	}

	// Create repository
	repo := repository.NewSQLRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, tokens, service.WithMaxUploadBytes(cfg.Upload.MaxBytes))
	return svc, tokens, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, tokens, err := newService(cfg, db)
	if err != nil {
		return err
	}

	// Create API handler
	handler := api.NewHandler(svc, tokens, cfg.Auth.CookieSecure)

	// Set up Gin router
	gin.SetMode(cfg.App.Env)
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Upload.MaxBytes + (1 << 20)
	handler.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		utils.Logger.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		utils.Logger.WithField("signal", sig.String()).Warn("Received signal, shutting down")
	case err := <-serverErrors:
		return fmt.Errorf("failed to start server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	utils.Logger.Info("Server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	utils.Logger.WithField("driver", cfg.Database.Driver).Info("Schema is up to date")
	return nil
}

// seedCmd creates one demo account per role. Existing usernames are left
// alone so the command can be rerun.
func seedCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo Owner, Manager and Tenant accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, _, err := newService(cfg, db)
			if err != nil {
				return err
			}

			accounts := []struct{ username, first, last, role string }{
				{"owner", "Olivia", "Owner", "Owner"},
				{"manager", "Marc", "Manager", "Manager"},
				{"tenant", "Tara", "Tenant", "Tenant"},
			}
			for _, a := range accounts {
				_, err := svc.SignUp(cmd.Context(), models.SignUpRequest{
					Username:        a.username,
					FirstName:       a.first,
					LastName:        a.last,
					Email:           a.username + "@example.com",
					PhoneNumber:     "514-555-0100",
					Password:        password,
					ConfirmPassword: password,
					Role:            a.role,
				})
				if verr, ok := apperrors.AsValidation(err); ok && verr.Has("username") && len(verr.Fields) == 1 {
					utils.Logger.WithField("username", a.username).Info("Demo account already exists")
					continue
				}
				if err != nil {
					return fmt.Errorf("seeding %s: %w", a.username, err)
				}
				utils.Logger.WithFields(logrus.Fields{
					"username": a.username,
					"role":     a.role,
				}).Info("Demo account created")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "Demo#2024", "password for the demo accounts")
	return cmd
}
