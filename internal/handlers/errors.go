package handlers

import (
	"errors"
	"net/http"
	"taskSync/internal/logger"
	"taskSync/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeRemoteFetchFailed:
		return http.StatusBadGateway
	case service.CodeValidation:
		return http.StatusBadRequest
	case codeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
