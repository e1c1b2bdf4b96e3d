package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"inventory/internal/config"
	"inventory/internal/core/job"
	"inventory/internal/core/notify"
	"inventory/internal/core/publish"
	"inventory/internal/core/status"
	"inventory/internal/logger"
	"inventory/internal/platform/storage"
	"inventory/internal/platform/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type TaskPayload struct {
	JobID  string    `json:"job_id"`
	Config JobConfig `json:"config"`
}

type Service struct {
	job     *job.JobService
	tasks   *tasks.Client
	status  status.Sink
	publish *publish.Service
	notify  *notify.Service
	archive *storage.Service
	log     *logger.Logger
	config  config.Config
	now     func() time.Time
}

func NewService(jobs *job.JobService, tc *tasks.Client, sink status.Sink, pub *publish.Service, nt *notify.Service, archive *storage.Service, cfg config.Config) *Service {
	return &Service{
		job:     jobs,
		tasks:   tc,
		status:  sink,
		publish: pub,
		notify:  nt,
		archive: archive,
		log:     logger.New("ReportService"),
		config:  cfg,
		now:     time.Now,
	}
}

func (s *Service) Enqueue(ctx context.Context, jc JobConfig) (string, error) {
	if len(jc.Recipients) == 0 {
		return "", fmt.Errorf("no recipients")
	}
	if jc.InputDir == "" {
		jc.InputDir = s.config.DownloadDir
	}
	if jc.OutputDir == "" {
		jc.OutputDir = s.config.OutputDir
	}

	id := uuid.New().String()
	payload, _ := json.Marshal(TaskPayload{JobID: id, Config: jc})
	if err := s.job.InitPending(ctx, id, job.TypeReport); err != nil {
		return "", err
	}
	task := asynq.NewTask(tasks.TaskTypeReport, payload)
	if err := s.tasks.Enqueue(task, "default", s.config.TaskMaxRetries); err != nil {
		return "", err
	}
	s.log.LogInfof("enqueued report job %s (%d brands selected)", id, len(jc.Brands))
	return id, nil
}

func (s *Service) HandleReportTask(ctx context.Context, t *asynq.Task) error {
	var p TaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	s.log.LogInfof("processing report job %s", p.JobID)
	if err := s.job.SetProcessing(ctx, p.JobID, job.TypeReport); err != nil {
		return err
	}

	result, runErr := s.Run(ctx, p.Config)
	if runErr != nil {
		s.log.LogError("report job "+p.JobID+" failed", runErr)
		if err := s.job.Fail(ctx, p.JobID, job.TypeReport, runErr, result); err != nil {
			return err
		}
		return runErr
	}
	s.log.LogSuccessf("report job %s completed, %d brands published", p.JobID, len(result.Links))
	return s.job.Complete(ctx, p.JobID, job.TypeReport, result)
}

// Run executes build → archive → publish → notify. Per-extract and
// per-artifact problems are skipped; an empty build, a failed folder
// hierarchy or a failed send terminates the job.
func (s *Service) Run(ctx context.Context, jc JobConfig) (job.ReportResult, error) {
	result := job.ReportResult{}

	s.status.Set("⏳ Building brand reports …")
	artifacts, err := s.BuildAll(jc)
	if err != nil {
		s.status.Set("❌ No reports generated – check filters and extracts.")
		return result, err
	}
	if len(artifacts) == 0 {
		s.status.Set("❌ No reports generated – check filters and extracts.")
		return result, errors.New("no reports generated")
	}
	result.Artifacts = artifacts

	if s.archive != nil && s.archive.Enabled() {
		result.Archive = s.archiveAll(ctx, artifacts)
	}

	s.status.Set("⏳ Publishing reports …")
	links, err := s.publish.Publish(ctx, artifacts)
	if err != nil || len(links) == 0 {
		s.status.Set("❌ Drive upload failed.")
		if err == nil {
			err = errors.New("no brand folders published")
		}
		return result, err
	}
	result.Links = links

	s.status.Set("⏳ Sending notification …")
	if err := s.notify.Send(ctx, notify.Subject, links, jc.Recipients); err != nil {
		s.status.Set("❌ Notification failed.")
		return result, err
	}

	s.status.Set("✅ Pipeline finished, email sent.")
	return result, nil
}

// BuildAll walks every CSV in the input directory and writes one artifact per
// brand per extract, returning brand → artifact paths. Extracts that cannot
// be parsed are skipped; so are artifacts that fail to write.
func (s *Service) BuildAll(jc JobConfig) (map[string][]string, error) {
	entries, err := os.ReadDir(jc.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	cfg := BuildConfig{Allowlist: jc.Brands, StrainType: jc.StrainType}
	artifacts := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		path := filepath.Join(jc.InputDir, e.Name())

		extract, err := ParseExtract(path)
		if err != nil {
			var schemaErr *SchemaError
			if errors.As(err, &schemaErr) {
				s.log.LogWarnf("skipping %s: %v", e.Name(), err)
			} else {
				s.log.LogErrorf("skipping unreadable extract %s: %v", e.Name(), err)
			}
			continue
		}

		reports := BuildReports(extract, cfg, s.now())
		if len(reports) == 0 {
			s.log.LogInfof("no brand data in %s after filtering", e.Name())
			continue
		}

		brands := make([]string, 0, len(reports))
		for b := range reports {
			brands = append(brands, b)
		}
		sort.Strings(brands)

		for _, brand := range brands {
			path, err := WriteArtifact(reports[brand], jc.OutputDir)
			if err != nil {
				s.log.LogErrorf("artifact for brand %s from %s skipped: %v", brand, e.Name(), err)
				continue
			}
			artifacts[brand] = append(artifacts[brand], path)
			s.log.LogInfof("created %s", filepath.Base(path))
		}
	}
	return artifacts, nil
}

// archiveAll mirrors every artifact into the archive bucket under a dated
// prefix. Failures are logged and do not affect the pipeline.
func (s *Service) archiveAll(ctx context.Context, artifacts map[string][]string) map[string]string {
	prefix := s.now().Format("2006-01-02")
	archive := map[string]string{}
	for _, paths := range artifacts {
		for _, p := range paths {
			url, err := s.archive.ArchiveFile(ctx, p, prefix)
			if err != nil {
				s.log.LogWarnf("archive skipped for %s: %v", filepath.Base(p), err)
				continue
			}
			archive[filepath.Base(p)] = url
		}
	}
	return archive
}
