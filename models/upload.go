package models

import (
	"time"

	"github.com/google/uuid"
)

// FileErrorRow is the synthetic row index used for errors that abort the
// whole file (unreadable, empty, malformed).
const FileErrorRow = -1

// BatchValidationResult is the outcome of validating one uploaded file.
type BatchValidationResult struct {
	Success        bool             `json:"success"`
	TotalRecords   int              `json:"totalRecords"`
	ValidRecords   int              `json:"validRecords"`
	InvalidRecords int              `json:"invalidRecords"`
	Errors         map[int][]string `json:"errors"`
	ValidPlans     []Plan           `json:"validPlans"`
}

// NewBatchValidationResult returns an empty result ready to accumulate rows.
func NewBatchValidationResult() *BatchValidationResult {
	return &BatchValidationResult{
		Errors:     make(map[int][]string),
		ValidPlans: []Plan{},
	}
}

// AddRowErrors records a rejected row.
func (r *BatchValidationResult) AddRowErrors(row int, msgs []string) {
	r.TotalRecords++
	r.InvalidRecords++
	r.Errors[row] = append(r.Errors[row], msgs...)
}

// AddPlan records an accepted row.
func (r *BatchValidationResult) AddPlan(p Plan) {
	r.TotalRecords++
	r.ValidRecords++
	r.ValidPlans = append(r.ValidPlans, p)
}

// Finalize computes the success flag.
func (r *BatchValidationResult) Finalize() {
	r.Success = r.InvalidRecords == 0 && r.ValidRecords > 0
}

// FileError builds the result for a file that could not be processed.
// Partial counts are discarded.
func FileError(totalRecords int, msg string) *BatchValidationResult {
	return &BatchValidationResult{
		Success:      false,
		TotalRecords: totalRecords,
		Errors:       map[int][]string{FileErrorRow: {msg}},
		ValidPlans:   []Plan{},
	}
}

// HasFileError reports whether the file as a whole was rejected.
func (r *BatchValidationResult) HasFileError() bool {
	_, ok := r.Errors[FileErrorRow]
	return ok
}

// UploadStatus is the final state of an import.
type UploadStatus string

const (
	UploadStatusCompleted UploadStatus = "completed" // every row persisted
	UploadStatusPartial   UploadStatus = "partial"   // some rows rejected, valid ones persisted
	UploadStatusRejected  UploadStatus = "rejected"  // nothing persisted
	UploadStatusFailed    UploadStatus = "failed"    // persistence error
)

// UploadBatch is one entry of a company's upload history, stored in Postgres.
type UploadBatch struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      int64        `gorm:"index;not null" json:"companyId"`
	FileName       string       `gorm:"type:varchar(255);not null" json:"fileName"`
	Format         string       `gorm:"type:varchar(10);not null" json:"format"`
	TotalRecords   int          `gorm:"not null;default:0" json:"totalRecords"`
	ValidRecords   int          `gorm:"not null;default:0" json:"validRecords"`
	InvalidRecords int          `gorm:"not null;default:0" json:"invalidRecords"`
	PersistedCount int          `gorm:"not null;default:0" json:"persistedCount"`
	Status         UploadStatus `gorm:"type:varchar(20);not null" json:"status"`
	ArchiveKey     string       `gorm:"type:varchar(512)" json:"archiveKey,omitempty"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"createdAt"`
}

// ImportResult is returned by an import: the validation report plus the
// stored history entry.
type ImportResult struct {
	Validation *BatchValidationResult `json:"validation"`
	Batch      *UploadBatch           `json:"batch"`
}

// UploadJobStatus tracks an asynchronous import.
type UploadJobStatus string

const (
	JobStatusPending    UploadJobStatus = "pending"
	JobStatusProcessing UploadJobStatus = "processing"
	JobStatusDone       UploadJobStatus = "done"
	JobStatusFailed     UploadJobStatus = "failed"
)

// UploadJob is the metadata of a queued import kept in redis.
type UploadJob struct {
	ID        string          `json:"id"`
	Status    UploadJobStatus `json:"status"`
	CompanyID int64           `json:"companyId"`
	FileName  string          `json:"fileName"`
	FilePath  string          `json:"filePath"`
	Strict    bool            `json:"strict"`
	CreatedAt time.Time       `json:"createdAt"`
	Error     string          `json:"error,omitempty"`
	Result    *ImportResult   `json:"result,omitempty"`
}

// PlansImportedEvent is published to SNS after an import stored plans.
type PlansImportedEvent struct {
	EventType      string    `json:"event_type"`
	BatchID        string    `json:"batch_id"`
	CompanyID      int64     `json:"company_id"`
	PersistedCount int       `json:"persisted_count"`
	InvalidCount   int       `json:"invalid_count"`
	PlanIDs        []string  `json:"plan_ids"`
	Timestamp      time.Time `json:"timestamp"`
}
