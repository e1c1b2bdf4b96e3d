package job

import (
	"context"
	"fmt"

	rds "inventory/internal/platform/redis"
)

type JobService struct{ redis *rds.Service }

func NewJobService(redis *rds.Service) *JobService { return &JobService{redis: redis} }

func (s *JobService) GetJobStatus(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := s.redis.CacheGet(ctx, key(jobID), &job); err != nil {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return &job, nil
}

func (s *JobService) store(ctx context.Context, jobID string, jobType Type, status Status, errMsg string, result interface{}) error {
	var job Job
	_ = s.redis.CacheGet(ctx, key(jobID), &job)
	job.JobID = jobID
	job.Type = jobType
	job.Status = status
	job.Error = errMsg
	switch v := result.(type) {
	case CatalogResult:
		job.Results = JobResult{Catalog: &v}
	case *CatalogResult:
		job.Results = JobResult{Catalog: v}
	case ReportResult:
		job.Results = JobResult{Report: &v}
	case *ReportResult:
		job.Results = JobResult{Report: v}
	case nil:
		// keep whatever the previous write stored
	}
	if err := s.redis.CacheSet(ctx, key(jobID), job, ttl(status)); err != nil {
		return err
	}
	// Update event for anyone subscribed to the job channel.
	_ = s.redis.Client().Publish(ctx, key(jobID), "updated").Err()
	return nil
}

func (s *JobService) InitPending(ctx context.Context, jobID string, jobType Type) error {
	return s.store(ctx, jobID, jobType, StatusPending, "", nil)
}

func (s *JobService) SetProcessing(ctx context.Context, jobID string, jobType Type) error {
	return s.store(ctx, jobID, jobType, StatusProcessing, "", nil)
}

func (s *JobService) Complete(ctx context.Context, jobID string, jobType Type, result interface{}) error {
	return s.store(ctx, jobID, jobType, StatusCompleted, "", result)
}

// Fail marks the job failed, keeping any partial result (a scrape batch that
// stopped mid-way still reports the stores it finished).
func (s *JobService) Fail(ctx context.Context, jobID string, jobType Type, jobErr error, result interface{}) error {
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	return s.store(ctx, jobID, jobType, StatusFailed, msg, result)
}

func key(id string) string { return "job:" + id }

func ttl(s Status) int {
	if s == StatusCompleted || s == StatusFailed {
		return 3600
	}
	return 600
}
