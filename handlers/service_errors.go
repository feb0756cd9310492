package handlers

import (
	"errors"
	"net/http"

	"github.com/farmily/fhs/services"
	"github.com/farmily/fhs/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Only the domain
// message reaches the client; wrapped causes are logged.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error("unhandled error type", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
		return
	}

	details := domainErr.Details
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch domainErr.Type {
	case services.ErrorTypeNotFound:
		writeErr = utils.WriteNotFound(w, domainErr.Message)

	case services.ErrorTypeValidation:
		writeErr = utils.WriteBadRequest(w, domainErr.Message, details)

	case services.ErrorTypeUnauthorized:
		writeErr = utils.WriteUnauthorized(w, domainErr.Message)

	case services.ErrorTypeForbidden:
		writeErr = utils.WriteForbidden(w, domainErr.Message)

	case services.ErrorTypeConflict:
		writeErr = utils.WriteConflict(w, domainErr.Message, details)

	default:
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}

	logger.Debug("handled service error",
		zap.String("type", string(domainErr.Type)),
		zap.String("message", domainErr.Message))
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
