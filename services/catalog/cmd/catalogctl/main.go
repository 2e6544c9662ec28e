package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/services/catalog/internal/models"
	"github.com/Skotchmaster/storefront/services/catalog/internal/repo"
	"github.com/Skotchmaster/storefront/services/catalog/internal/service"
	"github.com/Skotchmaster/storefront/services/catalog/internal/transport"
)

var (
	databaseURL string
	timeout     time.Duration

	seedFile string
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Administer the storefront catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the catalog tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDB(cmd.Context(), func(context.Context, *gorm.DB) error {
			fmt.Fprintln(cmd.OutOrStdout(), "catalog tables are up to date")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load products from a YAML file",
	Long: `Load products from a YAML file shaped as

  products:
    - name: Linen shirt
      price: 4999
      category: apparel
      stock: 12

Products are keyed by name, so running the same file twice updates
rows instead of duplicating them.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reqs, err := readSeed(seedFile)
		if err != nil {
			return err
		}
		return withDB(cmd.Context(), func(ctx context.Context, db *gorm.DB) error {
			svc := &service.CatalogService{Repo: &repo.GormRepo{DB: db}}
			n, err := svc.Seed(ctx, reqs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		})
	},
}

type seedDoc struct {
	Products []transport.CreateProductRequest `yaml:"products"`
}

func readSeed(path string) ([]transport.CreateProductRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var doc seedDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(doc.Products) == 0 {
		return nil, fmt.Errorf("seed file %s has no products", path)
	}
	return doc.Products, nil
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

func init() {
	pkgconfig.LoadDotEnv("services/catalog/.env", ".env")

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN (default: $DATABASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "products.yaml", "YAML file with products")

	rootCmd.AddCommand(migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
