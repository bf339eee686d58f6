package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"document-delivery/internal/logger"
	"document-delivery/internal/models"
)

// PricingHandler отдаёт базовую цену документа для города.
type PricingHandler struct {
	documents DocumentPricer
	log       *logger.Logger
}

// NewPricingHandler создает обработчик цен документов.
func NewPricingHandler(documents DocumentPricer, log *logger.Logger) *PricingHandler {
	return &PricingHandler{documents: documents, log: log}
}

// GetDocumentPrice возвращает строку документа: цена за экземпляр и итог по копиям.
func (h *PricingHandler) GetDocumentPrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	docType := strings.TrimSpace(query.Get("type"))
	city := strings.TrimSpace(query.Get("city"))
	if docType == "" || city == "" {
		writeErrorResponse(w, http.StatusBadRequest, "type and city are required")
		return
	}

	copies := 1
	if raw := query.Get("copies"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeErrorResponse(w, http.StatusBadRequest, "copies must be a positive integer")
			return
		}
		copies = parsed
	}

	line, err := h.documents.BuildOrderLine(r.Context(), models.DocumentType(docType), city, models.ServiceType(query.Get("service")), copies)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate document price")
		return
	}

	writeJSONResponse(w, http.StatusOK, line)
}
