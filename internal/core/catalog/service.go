// Package catalog runs the scrape side of the pipeline: one background job
// walks the configured stores through a single portal session and leaves a
// dated CSV export per store in the download directory.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inventory/internal/config"
	"inventory/internal/core/job"
	"inventory/internal/core/portal"
	"inventory/internal/core/status"
	"inventory/internal/logger"
	"inventory/internal/platform/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// JobConfig is the full snapshot a catalog job runs from. It is captured at
// enqueue time and never re-read from live configuration, so edits made while
// a job is queued do not leak into it.
type JobConfig struct {
	Stores      []config.StoreDescriptor `json:"stores"`
	Username    string                   `json:"username"`
	Password    string                   `json:"password"`
	DownloadDir string                   `json:"download_dir"`
}

// SessionFactory opens a fresh portal session with downloads routed into
// downloadDir. Jobs own the returned session and close it when done.
type SessionFactory func(downloadDir string) (portal.Session, error)

type TaskPayload struct {
	JobID  string    `json:"job_id"`
	Config JobConfig `json:"config"`
}

type Service struct {
	job        *job.JobService
	tasks      *tasks.Client
	status     status.Sink
	newSession SessionFactory
	log        *logger.Logger
	config     config.Config
	now        func() time.Time
}

func NewService(jobs *job.JobService, tc *tasks.Client, sink status.Sink, factory SessionFactory, cfg config.Config) *Service {
	return &Service{
		job:        jobs,
		tasks:      tc,
		status:     sink,
		newSession: factory,
		log:        logger.New("CatalogService"),
		config:     cfg,
		now:        time.Now,
	}
}

func (s *Service) Enqueue(ctx context.Context, jc JobConfig) (string, error) {
	if len(jc.Stores) == 0 {
		return "", fmt.Errorf("no stores to scrape")
	}
	if jc.DownloadDir == "" {
		jc.DownloadDir = s.config.DownloadDir
	}

	id := uuid.New().String()
	payload, _ := json.Marshal(TaskPayload{JobID: id, Config: jc})
	if err := s.job.InitPending(ctx, id, job.TypeCatalog); err != nil {
		return "", err
	}
	task := asynq.NewTask(tasks.TaskTypeCatalog, payload)
	if err := s.tasks.Enqueue(task, "default", s.config.TaskMaxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("enqueued catalog job %s for %d stores", id, len(jc.Stores))
	return id, nil
}

func (s *Service) HandleCatalogTask(ctx context.Context, t *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("processing catalog job %s (%d stores)", p.JobID, len(p.Config.Stores))
	if err := s.job.SetProcessing(ctx, p.JobID, job.TypeCatalog); err != nil {
		return err
	}

	result, runErr := s.Run(ctx, p.Config)
	if runErr != nil {
		s.log.LogError("catalog job "+p.JobID+" failed", runErr)
		if err := s.job.Fail(ctx, p.JobID, job.TypeCatalog, runErr, result); err != nil {
			return err
		}
		return runErr
	}
	s.log.LogSuccessf("catalog job %s completed with %d exports", p.JobID, len(result.Files))
	return s.job.Complete(ctx, p.JobID, job.TypeCatalog, result)
}

// Run scrapes every store in order through one shared session. The first
// store that fails stops the batch; the partial result still lists every
// store that was attempted.
func (s *Service) Run(ctx context.Context, jc JobConfig) (job.CatalogResult, error) {
	result := job.CatalogResult{}
	dir := jc.DownloadDir
	if dir == "" {
		dir = s.config.DownloadDir
	}

	removed, err := s.clearStaleExports(dir)
	if err != nil {
		return result, fmt.Errorf("prepare download dir: %w", err)
	}
	if removed > 0 {
		s.log.LogInfof("cleared %d stale csv exports from %s", removed, dir)
	}

	sess, err := s.newSession(dir)
	if err != nil {
		return result, fmt.Errorf("start portal session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.log.LogWarnf("closing portal session: %v", err)
		}
	}()

	if err := sess.Authenticate(ctx, jc.Username, jc.Password); err != nil {
		s.status.Set("❌ Login failed")
		return result, fmt.Errorf("portal login: %w", err)
	}

	for _, st := range jc.Stores {
		s.status.Set(fmt.Sprintf("⏳ Scraping %s …", st.Name))
		file, err := s.exportStore(ctx, sess, st, dir)
		if err != nil {
			s.status.Set(fmt.Sprintf("❌ Failed to download from %s", st.Name))
			result.Stores = append(result.Stores, job.StoreOutcome{Store: st.Name, Code: st.Code, Error: err.Error()})
			return result, fmt.Errorf("store %s: %w", st.Name, err)
		}
		result.Stores = append(result.Stores, job.StoreOutcome{Store: st.Name, Code: st.Code, File: file})
		result.Files = append(result.Files, file)
		s.status.Set(fmt.Sprintf("✅ %s downloaded", st.Name))
	}

	s.status.Set("✅ All stores done")
	return result, nil
}

func (s *Service) exportStore(ctx context.Context, sess portal.Session, st config.StoreDescriptor, dir string) (string, error) {
	if err := sess.SelectStore(ctx, st.Name); err != nil {
		return "", err
	}
	name, err := sess.ExportCurrentStore(ctx, dir)
	if err != nil {
		return "", err
	}
	stamped, err := stampExport(dir, name, st.Code, s.now())
	if err != nil {
		return "", err
	}
	s.log.LogInfof("export for %s saved as %s", st.Name, stamped)
	return stamped, nil
}

// clearStaleExports drops leftover CSVs from earlier batches so the directory
// watcher and the report stage only ever see files from the current run.
func (s *Service) clearStaleExports(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			s.log.LogWarnf("could not remove stale export %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

// stampExport renames a fresh download to {MM-DD-YYYY}_{code}{ext} so later
// stages can recover the store and date from the filename alone.
func stampExport(dir, name, code string, now time.Time) (string, error) {
	stamped := now.Format("01-02-2006") + "_" + code + filepath.Ext(name)
	if stamped == name {
		return stamped, nil
	}
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, stamped)); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return stamped, nil
}
