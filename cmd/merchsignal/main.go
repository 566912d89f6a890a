// backend/cmd/merchsignal/main.go
//
// Operations CLI: run the analysis pipeline from CSV inputs, seed the
// database, and export persisted runs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/merchsignal/backend/internal/ads"
	"github.com/merchsignal/backend/internal/config"
	"github.com/merchsignal/backend/internal/export"
	"github.com/merchsignal/backend/internal/ingest"
	"github.com/merchsignal/backend/internal/pipeline"
	"github.com/merchsignal/backend/internal/repository/postgres"
	"github.com/merchsignal/backend/internal/storage"
	"github.com/merchsignal/backend/pkg/logger"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (overrides MS_DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	var (
		db  *postgres.DB
		err error
	)
	if url := c.String("db-url"); url != "" {
		db, err = postgres.NewDBFromURL(url)
	} else {
		cfg := config.Load()
		db, err = postgres.NewDB(&cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) *postgres.DB {
	db, _ := c.Context.Value(dbKey).(*postgres.DB)
	return db
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "merchsignal",
		Usage: "SKU profitability, inventory risk and seasonality analysis",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the full pipeline from CSV inputs and export the ranked table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "master",
						Usage:   "SKU master CSV path",
						Value:   "./data/input/sku_master.csv",
						EnvVars: []string{"MS_MASTER_CSV"},
					},
					&cli.StringFlag{
						Name:    "sales",
						Usage:   "Sales history CSV path",
						Value:   "./data/input/sales_history.csv",
						EnvVars: []string{"MS_SALES_CSV"},
					},
					&cli.StringFlag{
						Name:    "out-dir",
						Usage:   "Directory for the exported CSV",
						Value:   "./data/output",
						EnvVars: []string{"MS_APP_OUTPUT_DIR"},
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload the exported CSV to object storage",
					},
					&cli.BoolFlag{
						Name:  "persist",
						Usage: "Persist the run and its table to the database",
					},
					newDBURLFlag(),
				},
				Action: runPipeline,
			},
			{
				Name:   "seed",
				Usage:  "Seed the database with ad campaign data",
				Before: initDB,
				After:  closeDB,
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:    "campaigns",
						Usage:   "Ad campaigns CSV path",
						Value:   "./data/input/ad_campaigns.csv",
						EnvVars: []string{"MS_CAMPAIGNS_CSV"},
					},
				},
				Action: seedCampaigns,
			},
			{
				Name:   "export",
				Usage:  "Export the latest persisted run to CSV",
				Before: initDB,
				After:  closeDB,
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "out-dir",
						Usage: "Directory for the exported CSV",
						Value: "./data/output",
					},
				},
				Action: exportLatestRun,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runPipeline(c *cli.Context) error {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	master, err := ingest.LoadMasterCSV(c.String("master"))
	if err != nil {
		return err
	}
	sales, err := ingest.LoadSalesCSV(c.String("sales"))
	if err != nil {
		return err
	}

	asOf := time.Now()
	recs, err := pipeline.New(cfg.PipelineOptions()).Run(c.Context, master, sales, asOf)
	if err != nil {
		return err
	}

	path, err := export.WriteFile(c.String("out-dir"), recs, asOf)
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logger.Log.Info().Str("path", path).Int("skus", len(recs)).Msg("Export written")

	if c.Bool("persist") {
		if err := initDB(c); err != nil {
			return err
		}
		defer closeDB(c)

		repo := postgres.NewRecommendationRepository(dbFromContext(c))
		runID, err := repo.SaveRun(c.Context, "csv", asOf, recs)
		if err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		logger.Log.Info().Int64("run_id", runID).Msg("Run persisted")
	}

	if c.Bool("upload") {
		if !cfg.Storage.Enabled {
			return fmt.Errorf("object storage is disabled (set MS_STORAGE_ENABLED=true)")
		}
		store, err := storage.NewMinioStorage(
			cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey,
			cfg.Storage.Bucket, cfg.Storage.UseSSL,
		)
		if err != nil {
			return err
		}
		if err := store.EnsureBucket(c.Context); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("exports/%s/%s", asOf.Format("2006/01/02"), filepath.Base(path))
		if err := store.UploadObject(c.Context, key, data); err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("Export uploaded")
	}
	return nil
}

func seedCampaigns(c *cli.Context) error {
	gateway := ads.NewGateway()
	if err := gateway.LoadCSV(c.String("campaigns")); err != nil {
		return err
	}

	repo := postgres.NewCampaignRepository(dbFromContext(c))
	campaigns := gateway.Campaigns("", "", "")
	if err := repo.ReplaceAll(c.Context, campaigns); err != nil {
		return fmt.Errorf("failed to seed campaigns: %w", err)
	}
	logger.Log.Info().Int("campaigns", len(campaigns)).Msg("Campaigns seeded")
	return nil
}

func exportLatestRun(c *cli.Context) error {
	repo := postgres.NewRecommendationRepository(dbFromContext(c))

	run, err := repo.LatestRun(c.Context)
	if err != nil {
		return fmt.Errorf("no persisted runs found: %w", err)
	}
	recs, err := repo.RowsForRun(c.Context, run.ID)
	if err != nil {
		return err
	}

	path, err := export.WriteFile(c.String("out-dir"), recs, run.CreatedAt)
	if err != nil {
		return err
	}
	logger.Log.Info().
		Int64("run_id", run.ID).
		Str("path", path).
		Int("skus", len(recs)).
		Msg("Export written")
	return nil
}
