// Package storage archives generated artifacts in a Supabase bucket and
// hands out signed links. Archiving is best-effort; a missing or failing
// bucket never blocks the pipeline.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inventory/internal/config"
	"inventory/internal/logger"

	supabase "github.com/antoineross/supabase-go"
	storage_go "github.com/supabase-community/storage-go"
)

const archiveLinkTTL = 7 * 24 * time.Hour

type Service struct {
	client *supabase.Client
	config config.Config
	log    *logger.Logger
}

func New(cfg config.Config) *Service {
	s := &Service{config: cfg, log: logger.New("ArchiveStorage")}
	if cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "" {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, nil)
		if err != nil {
			s.log.LogWarnf("supabase client init failed: %v", err)
		} else {
			s.client = client
		}
	}
	return s
}

func (s *Service) Enabled() bool {
	return s.client != nil && s.config.SupabaseBucket != ""
}

// ArchiveFile uploads one local file under objectDir in the archive bucket
// and returns a signed link.
func (s *Service) ArchiveFile(ctx context.Context, path, objectDir string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("archive storage not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	mime := contentType(path)
	upsert := true
	objectPath := objectDir + "/" + filepath.Base(path)
	reader := bytes.NewReader(data)
	if _, err := s.client.Storage.UploadFile(s.config.SupabaseBucket, objectPath, reader, storage_go.FileOptions{ContentType: &mime, Upsert: &upsert}); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	s.log.LogDebugf("archived %s", objectPath)

	return s.signedURL(ctx, s.config.SupabaseBucket, objectPath, int(archiveLinkTTL.Seconds()))
}

// signedURL signs an object through the storage REST endpoint directly; the
// client library caches stale auth headers on long-lived processes.
func (s *Service) signedURL(ctx context.Context, bucket, objectPath string, expiresIn int) (string, error) {
	base := strings.TrimRight(s.config.SupabaseURL, "/")
	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", base, bucket, objectPath)

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(map[string]int{"expiresIn": expiresIn}); err != nil {
		return "", fmt.Errorf("encode sign body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, signURL, buf)
	if err != nil {
		return "", fmt.Errorf("build sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.SupabaseServiceKey)
	req.Header.Set("apikey", s.config.SupabaseServiceKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request signed URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create signed URL: status %d", resp.StatusCode)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("decode signed URL response: %w", err)
	}

	path := signed.SignedURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, "/storage/v1/") {
		path = "/storage/v1" + path
	}
	return base + path, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}
