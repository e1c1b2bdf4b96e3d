// Package publish materializes brand artifacts into a dated remote folder
// hierarchy (root / YYYY-MM-DD / brand) and returns a browsable link per
// brand.
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"inventory/internal/logger"
)

// FolderStore is the remote side of publishing. Find and create are separate
// so the pipeline can decide when a folder is genuinely new.
type FolderStore interface {
	// FindFolder returns the folder id, or "" when no folder of that name
	// exists under the parent.
	FindFolder(ctx context.Context, name, parentID string) (string, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	GrantPublicRead(ctx context.Context, folderID string) error
	UploadFile(ctx context.Context, path, parentID string) (string, error)
	FolderURL(folderID string) string
}

// DependencyError means the shared top-level or date folder could not be
// established; nothing can be published without it.
type DependencyError struct {
	Scope string
	Err   error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("publish %s folder: %v", e.Scope, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// UploadError covers a single artifact that failed to upload. The batch
// continues without it.
type UploadError struct {
	Path  string
	Brand string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s for brand %s: %v", filepath.Base(e.Path), e.Brand, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

type Service struct {
	store FolderStore
	root  string
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store FolderStore, rootFolder string) *Service {
	return &Service{store: store, root: rootFolder, log: logger.New("PublishService"), now: time.Now}
}

// Publish uploads every brand's artifacts under root/date/brand and returns
// brand → folder link. A brand whose folder cannot be established is omitted;
// a failed top-level or date folder aborts the whole call with an empty map.
func (s *Service) Publish(ctx context.Context, artifacts map[string][]string) (map[string]string, error) {
	links := map[string]string{}

	topID, err := s.ensureFolder(ctx, s.root, "", false)
	if err != nil {
		return links, &DependencyError{Scope: "top-level", Err: err}
	}
	dateName := s.now().Format("2006-01-02")
	dateID, err := s.ensureFolder(ctx, dateName, topID, false)
	if err != nil {
		return links, &DependencyError{Scope: "date", Err: err}
	}

	brands := make([]string, 0, len(artifacts))
	for b := range artifacts {
		brands = append(brands, b)
	}
	sort.Strings(brands)

	for _, brand := range brands {
		brandID, err := s.ensureFolder(ctx, brand, dateID, true)
		if err != nil {
			s.log.LogErrorf("could not establish folder for brand %s: %v", brand, err)
			continue
		}
		for _, path := range artifacts[brand] {
			if _, err := s.store.UploadFile(ctx, path, brandID); err != nil {
				s.log.LogError("artifact skipped", &UploadError{Path: path, Brand: brand, Err: err})
				continue
			}
			s.log.LogInfof("uploaded %s into %s/%s", filepath.Base(path), dateName, brand)
		}
		links[brand] = s.store.FolderURL(brandID)
	}
	return links, nil
}

// ensureFolder finds a folder by exact name under parentID or creates it.
// Public read is granted on creation only; reused folders are assumed to
// already carry it.
func (s *Service) ensureFolder(ctx context.Context, name, parentID string, public bool) (string, error) {
	id, err := s.store.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id, err = s.store.CreateFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	s.log.LogInfof("created folder %q (%s)", name, id)

	if public {
		if err := s.store.GrantPublicRead(ctx, id); err != nil {
			s.log.LogWarnf("could not make folder %q public: %v", name, err)
		}
	}
	return id, nil
}
