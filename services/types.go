package services

import "github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// ImportRequest describes one catalog file to import.
type ImportRequest struct {
	Path      string // file on local disk
	FileName  string // original name, used for format detection and history
	CompanyID int64
	// Strict rejects the whole batch unless every row is valid.
	Strict bool
}

// ListPlansParams filters a plan listing.
type ListPlansParams struct {
	Category  models.Category
	CompanyID int64
	Limit     int
}
