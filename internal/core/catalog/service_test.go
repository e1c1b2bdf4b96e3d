package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inventory/internal/config"
	"inventory/internal/core/portal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingSink) Set(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recordingSink) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// fakeSession scripts portal behavior without a browser. Each export drops a
// real file into the download dir so the rename step operates on disk.
type fakeSession struct {
	authErr    error
	failSelect string

	attempted  []string
	selected   string
	closeCount int
}

func (f *fakeSession) Authenticate(ctx context.Context, username, password string) error {
	return f.authErr
}

func (f *fakeSession) StoreKeys(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeSession) SelectStore(ctx context.Context, displayName string) error {
	f.attempted = append(f.attempted, displayName)
	if displayName == f.failSelect {
		return &portal.StoreNotFoundError{Store: displayName}
	}
	f.selected = displayName
	return nil
}

func (f *fakeSession) ExportCurrentStore(ctx context.Context, downloadDir string) (string, error) {
	name := fmt.Sprintf("product-catalog %s.csv", f.selected)
	if err := os.WriteFile(filepath.Join(downloadDir, name), []byte("Product,Brand\n"), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

func (f *fakeSession) Close() error {
	f.closeCount++
	return nil
}

func newTestService(t *testing.T, fake *fakeSession, sink *recordingSink) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewService(nil, nil, sink, func(string) (portal.Session, error) { return fake, nil }, config.Config{DownloadDir: dir})
	svc.now = func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) }
	return svc, dir
}

func TestRunExportsAllStores(t *testing.T) {
	fake := &fakeSession{}
	sink := &recordingSink{}
	svc, dir := newTestService(t, fake, sink)

	stores := []config.StoreDescriptor{
		{Name: "Downtown", Code: "DT"},
		{Name: "Airport", Code: "AP"},
	}
	result, err := svc.Run(context.Background(), JobConfig{Stores: stores, DownloadDir: dir})
	require.NoError(t, err)

	assert.Equal(t, []string{"03-07-2025_DT.csv", "03-07-2025_AP.csv"}, result.Files)
	require.Len(t, result.Stores, 2)
	assert.Empty(t, result.Stores[0].Error)
	assert.Empty(t, result.Stores[1].Error)
	for _, f := range result.Files {
		assert.FileExists(t, filepath.Join(dir, f))
	}

	assert.Equal(t, []string{
		"⏳ Scraping Downtown …",
		"✅ Downtown downloaded",
		"⏳ Scraping Airport …",
		"✅ Airport downloaded",
		"✅ All stores done",
	}, sink.all())
	assert.Equal(t, 1, fake.closeCount)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	fake := &fakeSession{failSelect: "Airport"}
	sink := &recordingSink{}
	svc, dir := newTestService(t, fake, sink)

	stores := []config.StoreDescriptor{
		{Name: "Downtown", Code: "DT"},
		{Name: "Airport", Code: "AP"},
		{Name: "Harbor", Code: "HB"},
	}
	result, err := svc.Run(context.Background(), JobConfig{Stores: stores, DownloadDir: dir})
	require.Error(t, err)

	var notFound *portal.StoreNotFoundError
	assert.ErrorAs(t, err, &notFound)

	// Harbor is never reached once Airport fails.
	assert.Equal(t, []string{"Downtown", "Airport"}, fake.attempted)
	require.Len(t, result.Stores, 2)
	assert.Empty(t, result.Stores[0].Error)
	assert.NotEmpty(t, result.Stores[1].Error)
	assert.Equal(t, []string{"03-07-2025_DT.csv"}, result.Files)

	lines := sink.all()
	require.NotEmpty(t, lines)
	assert.Equal(t, "❌ Failed to download from Airport", lines[len(lines)-1])
	assert.Equal(t, 1, fake.closeCount)
}

func TestRunAuthFailure(t *testing.T) {
	fake := &fakeSession{authErr: &portal.AuthError{Reason: "bad credentials"}}
	sink := &recordingSink{}
	svc, dir := newTestService(t, fake, sink)

	result, err := svc.Run(context.Background(), JobConfig{
		Stores:      []config.StoreDescriptor{{Name: "Downtown", Code: "DT"}},
		DownloadDir: dir,
	})
	require.Error(t, err)

	var authErr *portal.AuthError
	assert.ErrorAs(t, err, &authErr)
	assert.Empty(t, fake.attempted)
	assert.Empty(t, result.Files)
	assert.Equal(t, []string{"❌ Login failed"}, sink.all())
	assert.Equal(t, 1, fake.closeCount)
}

func TestRunClearsStaleExports(t *testing.T) {
	fake := &fakeSession{}
	sink := &recordingSink{}
	svc, dir := newTestService(t, fake, sink)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "old_export.csv"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	_, err := svc.Run(context.Background(), JobConfig{
		Stores:      []config.StoreDescriptor{{Name: "Downtown", Code: "DT"}},
		DownloadDir: dir,
	})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "old_export.csv"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestRunSessionFactoryFailure(t *testing.T) {
	sink := &recordingSink{}
	dir := t.TempDir()
	svc := NewService(nil, nil, sink, func(string) (portal.Session, error) {
		return nil, errors.New("driver missing")
	}, config.Config{DownloadDir: dir})

	_, err := svc.Run(context.Background(), JobConfig{
		Stores:      []config.StoreDescriptor{{Name: "Downtown", Code: "DT"}},
		DownloadDir: dir,
	})
	require.ErrorContains(t, err, "start portal session")
}

func TestStampExport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw download.csv"), []byte("x"), 0o644))

	now := time.Date(2025, 12, 1, 8, 30, 0, 0, time.UTC)
	got, err := stampExport(dir, "raw download.csv", "DT", now)
	require.NoError(t, err)

	assert.Equal(t, "12-01-2025_DT.csv", got)
	assert.FileExists(t, filepath.Join(dir, got))
	assert.NoFileExists(t, filepath.Join(dir, "raw download.csv"))
}

func TestStampExportKeepsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dump.xlsx"), []byte("x"), 0o644))

	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := stampExport(dir, "dump.xlsx", "AP", now)
	require.NoError(t, err)
	assert.Equal(t, "01-02-2025_AP.xlsx", got)
}
