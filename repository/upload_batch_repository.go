package repository

import (
	"context"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUploadBatchRepository implements UploadBatchRepository using GORM.
type GormUploadBatchRepository struct {
	db *gorm.DB
}

// NewGormUploadBatchRepository creates a new GormUploadBatchRepository.
func NewGormUploadBatchRepository(db *gorm.DB) UploadBatchRepository {
	return &GormUploadBatchRepository{db: db}
}

// Create inserts a new history entry, assigning an id when missing.
func (r *GormUploadBatchRepository) Create(ctx context.Context, batch *models.UploadBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(batch).Error
}

// FindByCompany retrieves a company's uploads, newest first.
func (r *GormUploadBatchRepository) FindByCompany(ctx context.Context, companyID int64, page, limit int) ([]models.UploadBatch, int64, error) {
	var batches []models.UploadBatch
	var total int64

	query := r.db.WithContext(ctx).Model(&models.UploadBatch{}).Where("company_id = ?", companyID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&batches).Error; err != nil {
		return nil, 0, err
	}

	return batches, total, nil
}
