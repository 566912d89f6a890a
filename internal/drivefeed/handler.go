package drivefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// IngestFunc consumes freshly synced input files.
type IngestFunc func(ctx context.Context, masterPath, salesPath string) error

type Handler struct {
	service     *Service
	folderID    string
	downloadDir string
	ingest      IngestFunc
}

func NewHandler(service *Service, folderID, downloadDir string, ingest IngestFunc) *Handler {
	return &Handler{
		service:     service,
		folderID:    folderID,
		downloadDir: downloadDir,
		ingest:      ingest,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/feed/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/feed/files/download", h.DownloadFile).Methods("GET")
	router.HandleFunc("/api/feed/sync", h.Sync).Methods("POST")
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folderId")
	if folderID == "" {
		folderID = h.folderID
	}

	files, err := h.service.ListFiles(folderID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		http.Error(w, "fileId parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=data.csv")

	if err := h.service.DownloadFile(fileID, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Sync downloads both input CSVs and hands them to the ingest callback.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	masterPath, salesPath, err := h.service.SyncInputs(h.folderID, h.downloadDir)
	if err != nil {
		http.Error(w, fmt.Sprintf("sync failed: %v", err), http.StatusInternalServerError)
		return
	}

	if h.ingest != nil {
		if err := h.ingest(r.Context(), masterPath, salesPath); err != nil {
			http.Error(w, fmt.Sprintf("ingestion failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "success",
		"master": masterPath,
		"sales":  salesPath,
	})
}
