// backend/cmd/ingest/main.go
//
// Standalone feed server: syncs the pipeline input CSVs from a shared
// Google Drive folder and validates them on arrival.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/merchsignal/backend/internal/config"
	"github.com/merchsignal/backend/internal/drivefeed"
	"github.com/merchsignal/backend/internal/ingest"
	"github.com/merchsignal/backend/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if !cfg.DriveFeed.Enabled {
		log.Fatal("drive feed is disabled (set MS_DRIVE_ENABLED=true)")
	}

	credentials, err := os.ReadFile(cfg.DriveFeed.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to read drive credentials: %v", err)
	}

	feedService, err := drivefeed.NewService(context.Background(), credentials)
	if err != nil {
		log.Fatalf("Failed to initialize drive service: %v", err)
	}

	// Synced files are validated immediately so a broken export is rejected
	// at the feed boundary, not at the next pipeline run.
	validate := func(ctx context.Context, masterPath, salesPath string) error {
		master, err := ingest.LoadMasterCSV(masterPath)
		if err != nil {
			return err
		}
		if err := pipeline.ValidateMaster(master); err != nil {
			return err
		}
		if _, err := ingest.LoadSalesCSV(salesPath); err != nil {
			return err
		}
		return nil
	}

	r := mux.NewRouter()
	handler := drivefeed.NewHandler(feedService, cfg.DriveFeed.FolderID, cfg.DriveFeed.DownloadDir, validate)
	handler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.DriveFeed.Port)
	log.Printf("Feed server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
