package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/clearhaul/docvalidator/api/handlers"
	"github.com/clearhaul/docvalidator/api/middleware"
)

// SetupRoutes wires all validation routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	validation := v1.Group("/validation")
	{
		validation.POST("/documents/:documentId", h.Validation.ValidateDocument)
		validation.POST("/pending", h.Validation.ValidatePending)
		validation.GET("/documents/:documentId", h.Validation.GetDocument)
		validation.POST("/documents/:documentId/resubmit", h.Validation.ResubmitDocument)
	}
}
