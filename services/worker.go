package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/repository"

	"go.uber.org/zap"
)

// JobTTL is how long job metadata stays readable after its last update.
const JobTTL = 24 * time.Hour

const jobSaveTimeout = 5 * time.Second

// StartPlanImportWorker consumes job ids from the queue and imports the
// stored files one at a time. It returns a channel closed when the worker
// has stopped.
func StartPlanImportWorker(ctx context.Context, jobs repository.JobStore, svc PlanUploadService) <-chan struct{} {
	done := make(chan struct{})
	if jobs == nil || svc == nil {
		zap.L().Warn("plan import worker not started: missing dependencies")
		close(done)
		return done
	}

	go func() {
		defer close(done)
		zap.L().Info("plan import worker started")
		for {
			select {
			case <-ctx.Done():
				zap.L().Info("plan import worker stopping")
				return
			default:
			}

			jobID, err := jobs.Dequeue(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return
				}
				zap.L().Error("failed to dequeue plan import job", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(500 * time.Millisecond):
				}
				continue
			}
			ProcessImportJob(ctx, jobs, svc, jobID)
		}
	}()
	return done
}

// ProcessImportJob runs one queued import and stores its outcome. A run cut
// short by ctx is put back on the queue with its file kept for the retry.
func ProcessImportJob(ctx context.Context, jobs repository.JobStore, svc PlanUploadService, jobID string) {
	job, err := jobs.Get(ctx, jobID)
	if err != nil {
		zap.L().Error("failed to read job metadata", zap.String("job", jobID), zap.Error(err))
		return
	}
	keepFile := false
	defer func() {
		if !keepFile {
			_ = os.Remove(filepath.Clean(job.FilePath))
		}
	}()

	job.Status = models.JobStatusProcessing
	if err := jobs.Save(ctx, job, JobTTL); err != nil {
		zap.L().Warn("failed to mark job processing", zap.String("job", jobID), zap.Error(err))
	}

	result, serr := svc.ImportPlanFile(ctx, ImportRequest{
		Path:      job.FilePath,
		FileName:  job.FileName,
		CompanyID: job.CompanyID,
		Strict:    job.Strict,
	})

	// ctx may already be cancelled here; the outcome must still be stored.
	saveCtx, cancel := context.WithTimeout(context.Background(), jobSaveTimeout)
	defer cancel()

	switch {
	case serr != nil && ctx.Err() != nil:
		zap.L().Warn("plan import interrupted, requeueing", zap.String("job", jobID))
		job.Status = models.JobStatusPending
		if err := jobs.Save(saveCtx, job, JobTTL); err != nil {
			zap.L().Error("failed to reset interrupted job", zap.String("job", jobID), zap.Error(err))
		}
		if err := jobs.Enqueue(saveCtx, jobID); err != nil {
			zap.L().Error("failed to requeue interrupted job", zap.String("job", jobID), zap.Error(err))
			job.Status = models.JobStatusFailed
			job.Error = "Processing cancelled"
			_ = jobs.Save(saveCtx, job, JobTTL)
			return
		}
		keepFile = true
		return
	case serr != nil:
		zap.L().Error("plan import failed", zap.String("job", jobID), zap.Error(serr))
		job.Status = models.JobStatusFailed
		job.Error = serr.Message
	default:
		job.Status = models.JobStatusDone
		job.Result = result
	}

	if err := jobs.Save(saveCtx, job, JobTTL); err != nil {
		zap.L().Error("failed to store job result", zap.String("job", jobID), zap.Error(err))
	}
}
