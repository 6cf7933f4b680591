package handlers

import (
	"github.com/clearhaul/docvalidator/internal/service/validation"
	"github.com/clearhaul/docvalidator/pkg/logger"
)

type Handlers struct {
	Validation *ValidationHandler
}

func NewHandlers(
	validationService validation.ValidationService,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Validation: NewValidationHandler(validationService, logger),
	}
}
