package repository

import (
	"context"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
)

// PlanFilter narrows a plan listing. Zero values mean "any".
type PlanFilter struct {
	Category  models.Category
	CompanyID int64
	Limit     int
}

// PlanRepo stores validated plans. CreateMany reports how many plans were
// written even when it fails part way.
type PlanRepo interface {
	CreateMany(ctx context.Context, plans []models.Plan) (int, error)
	Find(ctx context.Context, filter PlanFilter) ([]models.Plan, error)
}

// UploadBatchRepository stores the upload history of each company.
type UploadBatchRepository interface {
	Create(ctx context.Context, batch *models.UploadBatch) error
	FindByCompany(ctx context.Context, companyID int64, page, limit int) ([]models.UploadBatch, int64, error)
}

// JobStore queues asynchronous imports and keeps their status.
type JobStore interface {
	Save(ctx context.Context, job *models.UploadJob, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.UploadJob, error)
	Delete(ctx context.Context, id string) error
	Enqueue(ctx context.Context, id string) error
	// Dequeue blocks until a job id is available or ctx is done.
	Dequeue(ctx context.Context) (string, error)
}
