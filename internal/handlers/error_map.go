package handlers

import (
	"net/http"

	"document-delivery/internal/apperror"
	"document-delivery/internal/logger"
)

// kindStatus сопоставляет категории ошибок сервисов и HTTP коды.
var kindStatus = map[apperror.Kind]int{
	apperror.KindNotFound:      http.StatusNotFound,
	apperror.KindValidation:    http.StatusBadRequest,
	apperror.KindConflict:      http.StatusConflict,
	apperror.KindUnavailable:   http.StatusServiceUnavailable,
	apperror.KindInvalidConfig: http.StatusInternalServerError,
}

// writeServiceError переводит ошибку сервиса в HTTP ответ.
// Для 5xx клиент получает internalMessage, исключение составляет недоступность справочников.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, internalMessage string) {
	kind, ok := apperror.KindOf(err)
	status, known := kindStatus[kind]
	if !ok || !known {
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, internalMessage)
		return
	}

	switch kind {
	case apperror.KindUnavailable:
		if log != nil {
			log.WithError(err).Warn(internalMessage)
		}
		writeErrorResponse(w, status, err.Error())
	case apperror.KindInvalidConfig:
		if log != nil {
			log.WithError(err).WithField("kind", string(kind)).Error("Invalid pricing configuration")
		}
		writeErrorResponse(w, status, internalMessage)
	default:
		writeErrorResponse(w, status, err.Error())
	}
}
