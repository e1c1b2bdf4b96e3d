package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestSnapshotListsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.csv")
	touch(t, dir, "b.csv")

	snap, err := Snapshot(dir)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	require.Contains(t, snap, "a.csv")
	require.Contains(t, snap, "b.csv")
}

func TestAwaitNewFileSeesFileCreatedAfterBaseline(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "old.csv")
	baseline, err := Snapshot(dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		touch(t, dir, "export.csv")
	}()

	name, ok := AwaitNewFile(context.Background(), dir, baseline, 2*time.Second, 10*time.Millisecond)
	require.True(t, ok)
	require.Equal(t, "export.csv", name)
}

func TestAwaitNewFileIgnoresBaselineFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "old.csv")
	baseline, err := Snapshot(dir)
	require.NoError(t, err)

	name, ok := AwaitNewFile(context.Background(), dir, baseline, 50*time.Millisecond, 10*time.Millisecond)
	require.False(t, ok)
	require.Empty(t, name)
}

func TestAwaitNewFileReturnsNoneWithinBoundedTime(t *testing.T) {
	dir := t.TempDir()
	baseline, err := Snapshot(dir)
	require.NoError(t, err)

	timeout := 100 * time.Millisecond
	interval := 50 * time.Millisecond

	start := time.Now()
	name, ok := AwaitNewFile(context.Background(), dir, baseline, timeout, interval)
	elapsed := time.Since(start)

	require.False(t, ok)
	require.Empty(t, name)
	// One leading interval plus the timeout window plus at most one trailing
	// poll, with slack for slow CI.
	require.Less(t, elapsed, timeout+2*interval+100*time.Millisecond)
	require.GreaterOrEqual(t, elapsed, timeout)
}

func TestAwaitNewFileStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	baseline, err := Snapshot(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := AwaitNewFile(ctx, dir, baseline, 5*time.Second, 10*time.Millisecond)
	require.False(t, ok)
	require.Less(t, time.Since(start), time.Second)
}
