package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/middleware"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/repository"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadController handles plan catalog uploads and listings.
type UploadController struct {
	uploadService services.PlanUploadService
	jobs          repository.JobStore
	validator     *RequestValidator
	cfg           Config
}

// NewUploadController creates a new UploadController. jobs may be nil, in
// which case async uploads are refused.
func NewUploadController(svc services.PlanUploadService, jobs repository.JobStore, cfg Config) *UploadController {
	return &UploadController{
		uploadService: svc,
		jobs:          jobs,
		validator:     NewRequestValidator(),
		cfg:           cfg.withDefaults(),
	}
}

// ValidateUpload handles POST /plans/upload/validate. Nothing is stored.
func (uc *UploadController) ValidateUpload(c *gin.Context) {
	file, ext, companyID, ok := uc.parseUpload(c)
	if !ok {
		return
	}

	path, err := uc.saveTemp(c, file, ext)
	if err != nil {
		zap.L().Error("Failed to store upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(c.Request.Context(), uc.cfg.ContextTimeout)
	defer cancel()

	c.JSON(http.StatusOK, uc.uploadService.ValidatePlanFile(ctx, path, companyID))
}

// ImportUpload handles POST /plans/upload. With ?async=true the file is
// queued and a job id returned; ?strict=true stores nothing unless every
// row is valid.
func (uc *UploadController) ImportUpload(c *gin.Context) {
	file, ext, companyID, ok := uc.parseUpload(c)
	if !ok {
		return
	}
	strict := queryBool(c, "strict")

	if queryBool(c, "async") {
		uc.handleAsyncImport(c, file, ext, companyID, strict)
		return
	}

	path, err := uc.saveTemp(c, file, ext)
	if err != nil {
		zap.L().Error("Failed to store upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(c.Request.Context(), uc.cfg.ContextTimeout)
	defer cancel()

	result, svcErr := uc.uploadService.ImportPlanFile(ctx, services.ImportRequest{
		Path:      path,
		FileName:  uploadName(file, ext),
		CompanyID: companyID,
		Strict:    strict,
	})
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetJobStatus handles GET /plans/upload/jobs/:id.
func (uc *UploadController) GetJobStatus(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job ID required"})
		return
	}
	if uc.jobs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	job, err := uc.jobs.Get(ctx, id)
	if errors.Is(err, repository.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	if err != nil {
		zap.L().Error("Failed to get job status", zap.String("job_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve job status"})
		return
	}
	if !middleware.CanAccessCompany(c, job.CompanyID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListUploads handles GET /companies/:companyId/uploads.
func (uc *UploadController) ListUploads(c *gin.Context) {
	companyID, err := services.ParseCompanyID(c.Param("companyId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}
	if !middleware.CanAccessCompany(c, companyID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to view uploads for this company"})
		return
	}
	page, limit, err := uc.validator.ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batches, total, svcErr := uc.uploadService.ListUploads(c.Request.Context(), companyID, page, limit)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploads": batches,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// ListPlans handles GET /plans.
func (uc *UploadController) ListPlans(c *gin.Context) {
	params := services.ListPlansParams{
		Category: models.Category(strings.ToLower(strings.TrimSpace(c.Query("category")))),
	}
	if raw := c.Query("companyId"); raw != "" {
		id, err := services.ParseCompanyID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
			return
		}
		params.CompanyID = id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		params.Limit = limit
	}

	plans, svcErr := uc.uploadService.ListPlans(c.Request.Context(), params)
	if svcErr != nil {
		c.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans, "count": len(plans)})
}

// Private helper methods

// parseUpload validates the request and the caller's access to the company.
// It writes the error response itself.
func (uc *UploadController) parseUpload(c *gin.Context) (*multipart.FileHeader, string, int64, bool) {
	file, ext, companyID, err := uc.validator.ParseUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", 0, false
	}
	if !middleware.CanAccessCompany(c, companyID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to upload plans for this company"})
		return nil, "", 0, false
	}
	return file, ext, companyID, true
}

// saveTemp writes the upload to a temp file that keeps the extension the
// parser selects on.
func (uc *UploadController) saveTemp(c *gin.Context, file *multipart.FileHeader, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "plan-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := c.SaveUploadedFile(file, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

func (uc *UploadController) handleAsyncImport(c *gin.Context, file *multipart.FileHeader, ext string, companyID int64, strict bool) {
	if uc.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async import is not available"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	jobID, err := uc.enqueueJob(ctx, c, file, ext, companyID, strict)
	if err != nil {
		zap.L().Error("Failed to enqueue async plan import", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue import job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"message": "Import queued for processing",
	})
}

func (uc *UploadController) enqueueJob(ctx context.Context, c *gin.Context, file *multipart.FileHeader, ext string, companyID int64, strict bool) (string, error) {
	if err := os.MkdirAll(uc.cfg.StorageDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	jobID := uuid.New().String()
	filePath := filepath.Join(uc.cfg.StorageDir, jobID+ext)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		return "", fmt.Errorf("failed to persist file: %w", err)
	}

	job := &models.UploadJob{
		ID:        jobID,
		Status:    models.JobStatusPending,
		CompanyID: companyID,
		FileName:  uploadName(file, ext),
		FilePath:  filePath,
		Strict:    strict,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.jobs.Save(ctx, job, services.JobTTL); err != nil {
		os.Remove(filePath)
		return "", err
	}
	if err := uc.jobs.Enqueue(ctx, jobID); err != nil {
		os.Remove(filePath)
		_ = uc.jobs.Delete(ctx, jobID)
		return "", err
	}

	zap.L().Info("Plan import job queued", zap.String("job_id", jobID), zap.Int64("company_id", companyID))
	return jobID, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && v
}

// uploadName is the client file name, given the stored extension when it
// had none.
func uploadName(file *multipart.FileHeader, ext string) string {
	name := filepath.Base(file.Filename)
	if filepath.Ext(name) == "" {
		name += ext
	}
	return name
}
