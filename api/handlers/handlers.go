package handlers

import (
	"github.com/locapass/docverify/internal/service/validation"
	"github.com/locapass/docverify/pkg/logger"
	"github.com/locapass/docverify/pkg/queue"
)

type Handlers struct {
	Validation *ValidationHandler
}

func NewHandlers(
	validationService validation.DocumentValidator,
	q queue.Queue,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Validation: NewValidationHandler(validationService, q, logger),
	}
}
