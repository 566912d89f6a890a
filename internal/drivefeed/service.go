// Package drivefeed syncs the two pipeline input CSVs from a shared Google
// Drive folder, for shops that maintain their catalog in spreadsheets.
package drivefeed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type Service struct {
	srv *drive.Service
}

func NewService(ctx context.Context, credentialsJSON []byte) (*Service, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %v", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

func (s *Service) ListFiles(folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("files(id, name, mimeType, modifiedTime, size)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %v", err)
	}

	var files []*File
	for _, f := range result.Files {
		files = append(files, &File{
			ID:           f.Id,
			Name:         f.Name,
			MimeType:     f.MimeType,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}
	return files, nil
}

func (s *Service) DownloadFile(fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Download()
	if err != nil {
		return fmt.Errorf("unable to download file: %v", err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// SyncInputs downloads the master and sales CSVs from the feed folder into
// downloadDir and returns their local paths. Files are matched by name
// prefix so dated exports (e.g. sku_master_20260801.csv) still resolve.
func (s *Service) SyncInputs(folderID, downloadDir string) (masterPath, salesPath string, err error) {
	files, err := s.ListFiles(folderID)
	if err != nil {
		return "", "", err
	}

	var masterFile, salesFile *File
	for _, f := range files {
		name := strings.ToLower(f.Name)
		switch {
		case strings.HasPrefix(name, "sku_master") && masterFile == nil:
			masterFile = f
		case strings.HasPrefix(name, "sales_history") && salesFile == nil:
			salesFile = f
		}
	}
	if masterFile == nil || salesFile == nil {
		return "", "", fmt.Errorf("feed folder missing inputs (need sku_master*.csv and sales_history*.csv)")
	}

	masterPath, err = s.downloadTo(masterFile, downloadDir)
	if err != nil {
		return "", "", err
	}
	salesPath, err = s.downloadTo(salesFile, downloadDir)
	if err != nil {
		return "", "", err
	}
	return masterPath, salesPath, nil
}

func (s *Service) downloadTo(f *File, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, f.Name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := s.DownloadFile(f.ID, out); err != nil {
		return "", err
	}
	return path, nil
}
