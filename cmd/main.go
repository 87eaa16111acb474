package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/steward/internal/admin"
	"github.com/kerem-kaynak/steward/internal/auth"
	"github.com/kerem-kaynak/steward/internal/config"
	"github.com/kerem-kaynak/steward/internal/database"
	"github.com/kerem-kaynak/steward/internal/entity"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	addr    string
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Auto-generated admin interface for gorm models",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := config.InitContext()
		if err != nil {
			return fmt.Errorf("failed to initialize context: %w", err)
		}

		defer func() {
			if err := ctx.Logger.Sync(); err != nil {
				fmt.Printf("Failed to sync logger: %v\n", err)
			}
		}()

		// Ensure the database connection is closed when the server exits
		sqlDB, err := ctx.DB.DB()
		if err != nil {
			ctx.Logger.Fatal("Failed to get underlying SQL DB from GORM DB", zap.Error(err))
		}
		defer func() {
			if err := sqlDB.Close(); err != nil {
				ctx.Logger.Fatal("Failed to close database connection", zap.Error(err))
			}
		}()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load admin config: %w", err)
		}

		jwtKey := os.Getenv("JWT_SECRET")
		if jwtKey == "" {
			return fmt.Errorf("JWT_SECRET environment variable is not set")
		}

		var adminCheck auth.Check
		if domains := os.Getenv("ADMIN_DOMAINS"); domains != "" {
			adminCheck = auth.DomainCheck(strings.Split(domains, ",")...)
		}
		authProvider := auth.NewJWTProvider([]byte(jwtKey), adminCheck)

		adm := admin.New(cfg, ctx.Logger, database.NewGormProvider(ctx.DB))
		adm.Auth = authProvider

		userView, err := adm.AddModelView(&entity.User{}, "User", "Accounts")
		if err != nil {
			return err
		}
		userView.SearchableColumns = []string{"email", "name"}

		projectView, err := adm.AddModelView(&entity.Project{}, "Project", "Workspace")
		if err != nil {
			return err
		}
		projectView.SearchableColumns = []string{"name", "description"}

		engine := gin.New()
		engine.Use(gin.Recovery())

		engine.GET("/auth/login", auth.Login(ctx))
		engine.GET("/auth/callback", auth.Callback(ctx, authProvider))
		engine.POST("/auth/logout", auth.Logout(ctx))

		if err := adm.Mount(engine); err != nil {
			return err
		}

		ctx.Logger.Info("Starting admin server", zap.String("addr", addr), zap.String("prefix", cfg.URLPrefix))
		return engine.Run(addr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./steward.yaml)")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
