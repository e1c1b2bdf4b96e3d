// Package drive adapts the Google Drive v3 API to the publish.FolderStore
// contract using a service-account credentials file.
package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

type Store struct {
	svc *driveapi.Service
}

func New(ctx context.Context, credentialsFile string) (*Store, error) {
	svc, err := driveapi.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(driveapi.DriveFileScope),
	)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	return &Store{svc: svc}, nil
}

func (s *Store) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, escapeName(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", parentID)
	}
	res, err := s.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (s *Store) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &driveapi.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := s.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

func (s *Store) GrantPublicRead(ctx context.Context, folderID string) error {
	perm := &driveapi.Permission{Type: "anyone", Role: "reader"}
	_, err := s.svc.Permissions.Create(folderID, perm).Context(ctx).Do()
	return err
}

func (s *Store) UploadFile(ctx context.Context, path, parentID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	meta := &driveapi.File{Name: filepath.Base(path), Parents: []string{parentID}}
	uploaded, err := s.svc.Files.Create(meta).Media(f).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return uploaded.Id, nil
}

func (s *Store) FolderURL(folderID string) string {
	return "https://drive.google.com/drive/folders/" + folderID
}

// escapeName closes the single-quote injection hole in Drive query strings.
func escapeName(name string) string {
	return strings.ReplaceAll(name, "'", `\'`)
}
