package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Validation constants
const (
	MaxPageSize   = 100
	MaxUploadSize = 50 * 1024 * 1024 // 50MB
)

var (
	allowedUploadExtensions = map[string]bool{
		".csv":  true,
		".xlsx": true,
		".xlsm": true,
	}

	// content types browsers send for catalog files, mapped to the extension
	// used when the file name carries none
	allowedUploadTypes = map[string]string{
		"text/csv":                 ".csv",
		"application/csv":          ".csv",
		"application/vnd.ms-excel": ".csv",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
		"application/vnd.ms-excel.sheet.macroEnabled.12":                    ".xlsm",
	}
)

// UploadForm is the non-file part of an upload request.
type UploadForm struct {
	CompanyID string `form:"companyId" validate:"required,numeric"`
}

// RequestValidator handles request validation
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new request validator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// ParseUpload reads and checks the uploaded file and the company id. The
// returned extension is the one the file is stored under.
func (rv *RequestValidator) ParseUpload(c *gin.Context) (*multipart.FileHeader, string, int64, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, "", 0, errors.New("file is required")
	}

	ext, ok := uploadExtension(file)
	if !ok {
		return nil, "", 0, errors.New("invalid file type. Only CSV and XLSX files are allowed")
	}
	if err := rv.ValidateFileSize(file); err != nil {
		return nil, "", 0, err
	}

	var form UploadForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, "", 0, fmt.Errorf("invalid form data: %w", err)
	}
	if err := rv.validate.Struct(&form); err != nil {
		return nil, "", 0, errors.New("companyId is required and must be a positive integer")
	}
	companyID, err := services.ParseCompanyID(form.CompanyID)
	if err != nil {
		return nil, "", 0, errors.New("companyId is required and must be a positive integer")
	}

	return file, ext, companyID, nil
}

// ValidateFileSize checks the upload limit. Empty files pass and are
// reported by the parser as a file-level error in the result.
func (rv *RequestValidator) ValidateFileSize(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return fmt.Errorf("file too large. Maximum size is %dMB", MaxUploadSize/(1024*1024))
	}
	return nil
}

// ParsePagination validates and parses pagination parameters
func (rv *RequestValidator) ParsePagination(c *gin.Context) (int, int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errors.New("invalid page number")
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		return 0, 0, errors.New("invalid page size")
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, nil
}

// uploadExtension accepts a file by its extension, or by content type when
// the name has none.
func uploadExtension(file *multipart.FileHeader) (string, bool) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != "" {
		return ext, allowedUploadExtensions[ext]
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.Header.Get("Content-Type"), ";", 2)[0]))
	ext, ok := allowedUploadTypes[contentType]
	return ext, ok
}
