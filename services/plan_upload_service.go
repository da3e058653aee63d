package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	aws_pkg "github.com/NicolasDuarte04/Briki-Web-App-sub006/pkg/aws"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/parser"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventPlansImported = "plans_imported"

	msgNoRecords = "No records found in file"
	maxListLimit = 500
)

// PlanUploadService validates and imports partner plan catalogs.
type PlanUploadService interface {
	ValidatePlanFile(ctx context.Context, path string, companyID int64) *models.BatchValidationResult
	ImportPlanFile(ctx context.Context, req ImportRequest) (*models.ImportResult, *ServiceError)
	ListUploads(ctx context.Context, companyID int64, page, limit int) ([]models.UploadBatch, int64, *ServiceError)
	ListPlans(ctx context.Context, params ListPlansParams) ([]models.Plan, *ServiceError)
}

// PlanUploadDeps wires the collaborators of the upload service. Archiver,
// Publisher, Cache and Metrics are optional.
type PlanUploadDeps struct {
	Plans       repository.PlanRepo
	Batches     repository.UploadBatchRepository
	Cache       repository.PlanCache
	Archiver    aws_pkg.FileArchiver
	Publisher   aws_pkg.SNSPublisher
	SNSTopicArn string
	Metrics     aws_pkg.MetricsRecorder
	Logger      *zap.Logger
}

type planUploadServiceImpl struct {
	validator   *RecordValidator
	plans       repository.PlanRepo
	batches     repository.UploadBatchRepository
	cache       repository.PlanCache
	archiver    aws_pkg.FileArchiver
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	metrics     aws_pkg.MetricsRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewPlanUploadService creates a new PlanUploadService.
func NewPlanUploadService(deps PlanUploadDeps) PlanUploadService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &planUploadServiceImpl{
		validator:   NewRecordValidator(),
		plans:       deps.Plans,
		batches:     deps.Batches,
		cache:       deps.Cache,
		archiver:    deps.Archiver,
		snsClient:   deps.Publisher,
		snsTopicArn: deps.SNSTopicArn,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// ValidatePlanFile runs parse -> validate -> extract over every row of the
// file in order. Problems with rows or with the file itself are reported in
// the result, never as an error.
func (s *planUploadServiceImpl) ValidatePlanFile(ctx context.Context, path string, companyID int64) *models.BatchValidationResult {
	reader, err := parser.Open(path)
	if err != nil {
		s.logger.Warn("Failed to open upload", zap.String("path", path), zap.Error(err))
		return models.FileError(0, fileErrorMessage(err))
	}
	defer reader.Close()

	result := models.NewBatchValidationResult()
	seen := make(map[string]int)
	for {
		if err := ctx.Err(); err != nil {
			return models.FileError(0, "Processing cancelled: "+err.Error())
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Warn("Failed to read upload", zap.String("path", path), zap.Error(err))
			return models.FileError(0, fileErrorMessage(err))
		}

		plan, errs := s.validator.Validate(rec)
		if len(errs) > 0 {
			result.AddRowErrors(rec.Row, errs)
			continue
		}
		if plan.PlanID == "" {
			plan.PlanID = s.generatePlanID()
		} else if first, dup := seen[plan.PlanID]; dup {
			result.AddRowErrors(rec.Row, []string{fmt.Sprintf("planId: duplicates row %d", first)})
			continue
		}
		seen[plan.PlanID] = rec.Row
		plan.CompanyID = companyID
		plan.CategoryFields = ExtractCategoryFields(plan.Category, rec)
		result.AddPlan(plan)
	}

	if result.TotalRecords == 0 {
		return models.FileError(0, msgNoRecords)
	}
	result.Finalize()
	return result
}

// ImportPlanFile validates the file and stores its valid plans. A strict
// import stores nothing unless every row is valid.
func (s *planUploadServiceImpl) ImportPlanFile(ctx context.Context, req ImportRequest) (*models.ImportResult, *ServiceError) {
	if req.CompanyID <= 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid company id"}
	}
	if req.FileName == "" {
		req.FileName = filepath.Base(req.Path)
	}

	start := s.now()
	validation := s.ValidatePlanFile(ctx, req.Path, req.CompanyID)
	if err := ctx.Err(); err != nil {
		s.logger.Warn("Plan import cancelled", zap.Int64("company_id", req.CompanyID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 503, Message: "Processing cancelled"}
	}

	batch := &models.UploadBatch{
		ID:             uuid.New(),
		CompanyID:      req.CompanyID,
		FileName:       req.FileName,
		Format:         formatOf(req.FileName),
		TotalRecords:   validation.TotalRecords,
		ValidRecords:   validation.ValidRecords,
		InvalidRecords: validation.InvalidRecords,
	}

	switch {
	case validation.ValidRecords == 0, req.Strict && !validation.Success:
		batch.Status = models.UploadStatusRejected
	default:
		createdAt := s.now().UTC()
		for i := range validation.ValidPlans {
			validation.ValidPlans[i].CreatedAt = createdAt
		}
		written, err := s.plans.CreateMany(ctx, validation.ValidPlans)
		batch.PersistedCount = written
		if err != nil {
			s.logger.Error("Failed to store plans",
				zap.String("batch_id", batch.ID.String()),
				zap.Int64("company_id", req.CompanyID),
				zap.Int("persisted", written),
				zap.Error(err))
			batch.Status = models.UploadStatusFailed
			s.recordBatch(ctx, batch)
			if written > 0 {
				s.invalidateCache(ctx, batch.CompanyID)
			}
			s.recordMetrics(batch, s.now().Sub(start))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to store plans"}
		}
		batch.Status = models.UploadStatusCompleted
		if validation.InvalidRecords > 0 {
			batch.Status = models.UploadStatusPartial
		}
	}

	if !validation.HasFileError() {
		batch.ArchiveKey = s.archive(ctx, req, batch.ID)
	}
	s.recordBatch(ctx, batch)

	if batch.PersistedCount > 0 {
		s.publishImported(ctx, batch, validation.ValidPlans)
		s.invalidateCache(ctx, batch.CompanyID)
	}
	s.recordMetrics(batch, s.now().Sub(start))

	s.logger.Info("Plan upload processed",
		zap.String("batch_id", batch.ID.String()),
		zap.Int64("company_id", batch.CompanyID),
		zap.String("status", string(batch.Status)),
		zap.Int("total", batch.TotalRecords),
		zap.Int("valid", batch.ValidRecords),
		zap.Int("invalid", batch.InvalidRecords),
		zap.Int("persisted", batch.PersistedCount))

	return &models.ImportResult{Validation: validation, Batch: batch}, nil
}

// ListUploads returns a company's upload history, newest first.
func (s *planUploadServiceImpl) ListUploads(ctx context.Context, companyID int64, page, limit int) ([]models.UploadBatch, int64, *ServiceError) {
	if companyID <= 0 {
		return nil, 0, &ServiceError{StatusCode: 400, Message: "Invalid company id"}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	batches, total, err := s.batches.FindByCompany(ctx, companyID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list uploads", zap.Int64("company_id", companyID), zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to retrieve uploads"}
	}
	return batches, total, nil
}

// ListPlans returns stored plans, served from the cache when possible.
func (s *planUploadServiceImpl) ListPlans(ctx context.Context, params ListPlansParams) ([]models.Plan, *ServiceError) {
	if params.Category != "" && !params.Category.IsValid() {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid category"}
	}
	if params.Limit <= 0 || params.Limit > maxListLimit {
		params.Limit = 50
	}
	filter := repository.PlanFilter{Category: params.Category, CompanyID: params.CompanyID, Limit: params.Limit}

	if s.cache != nil {
		if plans, ok := s.cache.GetPlans(ctx, filter); ok {
			s.countMetric(aws_pkg.MetricCacheHits)
			return plans, nil
		}
		s.countMetric(aws_pkg.MetricCacheMisses)
	}

	plans, err := s.plans.Find(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list plans", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to retrieve plans"}
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	if s.cache != nil {
		s.cache.SetPlans(ctx, filter, plans)
	}
	return plans, nil
}

// generatePlanID returns plan_<unix millis>_<9 random chars>.
func (s *planUploadServiceImpl) generatePlanID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("plan_%d_%s", s.now().UnixMilli(), suffix)
}

func (s *planUploadServiceImpl) archive(ctx context.Context, req ImportRequest, batchID uuid.UUID) string {
	if s.archiver == nil {
		return ""
	}
	f, err := os.Open(filepath.Clean(req.Path))
	if err != nil {
		s.logger.Warn("Failed to open upload for archiving", zap.String("path", req.Path), zap.Error(err))
		return ""
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(req.FileName))
	key := fmt.Sprintf("%d/%s%s", req.CompanyID, batchID, ext)
	archived, err := s.archiver.Archive(ctx, key, f, contentTypeFor(ext))
	if err != nil {
		s.logger.Warn("Failed to archive upload", zap.String("key", key), zap.Error(err))
		return ""
	}
	return archived
}

func (s *planUploadServiceImpl) recordBatch(ctx context.Context, batch *models.UploadBatch) {
	if s.batches == nil {
		return
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		s.logger.Error("Failed to record upload batch", zap.String("batch_id", batch.ID.String()), zap.Error(err))
	}
}

func (s *planUploadServiceImpl) invalidateCache(ctx context.Context, companyID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, companyID); err != nil {
		s.logger.Warn("Failed to invalidate plan cache", zap.Int64("company_id", companyID), zap.Error(err))
	}
}

func (s *planUploadServiceImpl) publishImported(ctx context.Context, batch *models.UploadBatch, plans []models.Plan) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.PlanID)
	}
	event := models.PlansImportedEvent{
		EventType:      EventPlansImported,
		BatchID:        batch.ID.String(),
		CompanyID:      batch.CompanyID,
		PersistedCount: batch.PersistedCount,
		InvalidCount:   batch.InvalidRecords,
		PlanIDs:        ids,
		Timestamp:      s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("Failed to marshal plans_imported event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, EventPlansImported, payload); err != nil {
		s.logger.Warn("Failed to publish plans_imported event", zap.String("batch_id", event.BatchID), zap.Error(err))
	}
}

// recordMetrics sends the batch counters in the background.
func (s *planUploadServiceImpl) recordMetrics(batch *models.UploadBatch, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	dims := map[string]string{
		"Format": batch.Format,
		"Status": string(batch.Status),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		name := aws_pkg.MetricUploadsProcessed
		if batch.Status == models.UploadStatusRejected || batch.Status == models.UploadStatusFailed {
			name = aws_pkg.MetricUploadsRejected
		}
		err := s.metrics.Put(ctx,
			aws_pkg.Count(name, dims),
			aws_pkg.Total(aws_pkg.MetricRecordsProcessed, batch.TotalRecords, dims),
			aws_pkg.Total(aws_pkg.MetricRecordsInvalid, batch.InvalidRecords, dims),
			aws_pkg.Total(aws_pkg.MetricPlansPersisted, batch.PersistedCount, dims),
			aws_pkg.Latency(aws_pkg.MetricUploadLatency, elapsed, dims),
		)
		if err != nil {
			s.logger.Debug("Failed to record upload metrics", zap.Error(err))
		}
	}()
}

func (s *planUploadServiceImpl) countMetric(name string) {
	if s.metrics == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.Put(ctx, aws_pkg.Count(name, nil))
	}()
}

func fileErrorMessage(err error) string {
	switch {
	case errors.Is(err, parser.ErrMissingHeader):
		return msgNoRecords
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return "Unsupported file format. Please upload a CSV or XLSX file"
	}
	return "Failed to process file: " + err.Error()
}

func formatOf(name string) string {
	format, err := parser.FormatFromName(name)
	if err != nil {
		return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	}
	return string(format)
}

func contentTypeFor(ext string) string {
	switch ext {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xlsm":
		return "application/vnd.ms-excel.sheet.macroEnabled.12"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}

// ParseCompanyID parses a positive company id.
func ParseCompanyID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid company id %q", raw)
	}
	return id, nil
}
