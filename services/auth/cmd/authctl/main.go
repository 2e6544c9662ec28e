package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/services/auth/internal/models"
	"github.com/Skotchmaster/storefront/services/auth/internal/repo"
	"github.com/Skotchmaster/storefront/services/auth/internal/service"
)

var (
	databaseURL string
	timeout     time.Duration

	adminEmail    string
	adminPassword string
)

// rootCmd is the auth administration tool.
var rootCmd = &cobra.Command{
	Use:           "authctl",
	Short:         "Administer storefront accounts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the auth tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, _ *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "auth tables are up to date")
			return nil
		})
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account or promote an existing one",
	Long: `Create an admin account with the given email and password.

If the email is already registered the account is promoted to admin
and its password is replaced. The password may also be passed through
AUTHCTL_ADMIN_PASSWORD to keep it out of shell history.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if adminPassword == "" {
			adminPassword = os.Getenv("AUTHCTL_ADMIN_PASSWORD")
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *service.AuthService) error {
			user, err := svc.CreateAdmin(ctx, adminEmail, adminPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (%s) ready\n", user.Email, user.ID)
			return nil
		})
	},
}

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired and revoked refresh tokens",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.AuthService) error {
			n, err := svc.PurgeTokens(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d refresh tokens\n", n)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print account counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.AuthService) error {
			stats, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users: %d\nadmins: %d\n", stats.TotalUsers, stats.Admins)
			return nil
		})
	},
}

func withDB(parent context.Context, fn func(ctx context.Context, db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	db, err := pkgdb.OpenAndMigrate(ctx, databaseURL, models.All()...)
	if err != nil {
		return err
	}
	defer func() { _ = pkgdb.Close(db) }()

	return fn(ctx, db)
}

func withService(parent context.Context, fn func(ctx context.Context, svc *service.AuthService) error) error {
	return withDB(parent, func(ctx context.Context, db *gorm.DB) error {
		return fn(ctx, &service.AuthService{Repo: &repo.GormRepo{DB: db}})
	})
}

func init() {
	pkgconfig.LoadDotEnv()

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN (default: $DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, createAdminCmd, purgeTokensCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
