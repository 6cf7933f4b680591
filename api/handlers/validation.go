package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clearhaul/docvalidator/internal/repository"
	"github.com/clearhaul/docvalidator/internal/service/validation"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

type ValidationHandler struct {
	service validation.ValidationService
	logger  logger.Logger
}

// ErrorResponse is the error body shape for all validation endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewValidationHandler(service validation.ValidationService, logger logger.Logger) *ValidationHandler {
	return &ValidationHandler{
		service: service,
		logger:  logger,
	}
}

// ValidateDocument triggers a validation run for one document.
func (h *ValidationHandler) ValidateDocument(c *gin.Context) {
	documentID := c.Param("documentId")

	result, err := h.service.ValidateOne(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to validate document", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidatePending runs the batch processor over all pending documents.
func (h *ValidationHandler) ValidatePending(c *gin.Context) {
	result, err := h.service.ValidatePending(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to run batch validation", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDocument returns the persisted validation state of a document.
func (h *ValidationHandler) GetDocument(c *gin.Context) {
	documentID := c.Param("documentId")

	doc, err := h.service.GetDocument(c.Request.Context(), documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to load document", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ResubmitDocument replaces a document's blob and resets it to pending.
func (h *ValidationHandler) ResubmitDocument(c *gin.Context) {
	documentID := c.Param("documentId")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	if err := h.service.Resubmit(c.Request.Context(), documentID, file, header.Filename); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to resubmit document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documentId": documentID, "status": "pending"})
}

func (h *ValidationHandler) handleError(c *gin.Context, code int, message string, err error) {
	errText := ""
	if err != nil {
		errText = err.Error()
		h.logger.Error(message, logger.Error(err))
	}
	c.JSON(code, ErrorResponse{
		Error:   errText,
		Message: message,
	})
}
