package routes

import (
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/controllers"
	"github.com/NicolasDuarte04/Briki-Web-App-sub006/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPlanRoutes sets up the upload, history and listing routes.
// uploadLimiter, when set, guards the upload endpoints.
func RegisterPlanRoutes(r *gin.Engine, uc *controllers.UploadController, tokens *middleware.TokenValidator, uploadLimiter *middleware.RateLimiter) {
	r.GET("/plans", uc.ListPlans)

	authed := r.Group("")
	authed.Use(middleware.AuthMiddleware(tokens), middleware.PartnerOrAdmin())

	uploads := authed.Group("/plans/upload")
	if uploadLimiter != nil {
		uploads.Use(uploadLimiter.Middleware())
	}
	uploads.POST("/validate", uc.ValidateUpload)
	uploads.POST("", uc.ImportUpload)
	uploads.GET("/jobs/:id", uc.GetJobStatus)

	authed.GET("/companies/:companyId/uploads", uc.ListUploads)
}
