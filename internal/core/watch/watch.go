// Package watch detects the appearance of new files in a directory by
// polling. The portal's export action writes a CSV into the download
// directory asynchronously; the only reliable completion signal is a name
// showing up that was not there before the action was triggered.
package watch

import (
	"context"
	"os"
	"time"
)

// Snapshot captures the current file names in dir. Callers take the snapshot
// immediately before triggering the action expected to produce a new file,
// after any settle delay they need.
func Snapshot(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// AwaitNewFile polls dir on the given interval until a file not present in
// baseline appears, returning its name. It sleeps one interval before the
// first check and computes the deadline after that sleep, so total blocking
// is bounded by timeout plus two intervals. Returns ("", false) when the
// deadline passes or ctx is cancelled. Directory read errors skip that tick.
func AwaitNewFile(ctx context.Context, dir string, baseline map[string]struct{}, timeout, interval time.Duration) (string, bool) {
	if interval <= 0 {
		interval = time.Second
	}
	if !sleep(ctx, interval) {
		return "", false
	}

	deadline := time.Now().Add(timeout)
	for {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if _, ok := baseline[e.Name()]; !ok {
					return e.Name(), true
				}
			}
		}
		if time.Now().After(deadline) {
			return "", false
		}
		if !sleep(ctx, interval) {
			return "", false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
