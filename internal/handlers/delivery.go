package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"document-delivery/internal/logger"
	"document-delivery/internal/models"
	"document-delivery/internal/services"

	"github.com/google/uuid"
)

// DeliveryHandler отдаёт справочники доставки и считает цены экспресс-доставки.
type DeliveryHandler struct {
	pricer ExpressPricer
	log    *logger.Logger
}

// NewDeliveryHandler создает обработчик доставки.
func NewDeliveryHandler(pricer ExpressPricer, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{pricer: pricer, log: log}
}

// ExpressQuoteRequest: запрос цены до района. Указывается ровно один источник отправления.
type ExpressQuoteRequest struct {
	OriginCommune  string     `json:"origin_commune"`
	OriginLat      *float64   `json:"origin_lat"`
	OriginLon      *float64   `json:"origin_lon"`
	OriginSectorID *uuid.UUID `json:"origin_sector_id"`
	SectorID       uuid.UUID  `json:"sector_id"`
}

// DepotQuoteRequest: запрос цены курьера от мэрии до автовокзала.
type DepotQuoteRequest struct {
	OriginCommune string `json:"origin_commune"`
}

// QuoteResponse: ответ расчёта. Без активного тарифа available=false и quote отсутствует.
type QuoteResponse struct {
	Available bool                  `json:"available"`
	Quote     *models.DistanceQuote `json:"quote,omitempty"`
}

// GetCommunes возвращает коммуны с активными районами.
func (h *DeliveryHandler) GetCommunes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	communes, err := h.pricer.ListCommunesWithActiveSectors(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list communes")
		return
	}
	writeJSONResponse(w, http.StatusOK, communes)
}

// GetZones возвращает активные зоны доставки.
func (h *DeliveryHandler) GetZones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	zones, err := h.pricer.ActiveZones(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list zones")
		return
	}
	writeJSONResponse(w, http.StatusOK, zones)
}

// GetAvailability сообщает, доступна ли экспресс-доставка в коммуне.
func (h *DeliveryHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	commune := strings.TrimSpace(r.URL.Query().Get("commune"))
	if commune == "" {
		writeErrorResponse(w, http.StatusBadRequest, "commune is required")
		return
	}

	available, err := h.pricer.IsExpressAvailable(r.Context(), commune)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to check express availability")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"commune":   commune,
		"available": available,
	})
}

// QuoteExpress считает цену экспресс-доставки до района.
func (h *DeliveryHandler) QuoteExpress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ExpressQuoteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateExpressQuoteRequest(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		quote *models.DistanceQuote
		err   error
	)
	switch {
	case req.OriginSectorID != nil:
		quote, err = h.pricer.SectorPrice(r.Context(), *req.OriginSectorID, req.SectorID)
	case req.OriginLat != nil:
		origin := services.OriginPoint(models.GeoPoint{Latitude: *req.OriginLat, Longitude: *req.OriginLon})
		quote, err = h.pricer.ExpressPriceToSector(r.Context(), origin, req.SectorID)
	default:
		quote, err = h.pricer.ExpressPriceToSector(r.Context(), services.OriginCommune(req.OriginCommune), req.SectorID)
	}
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate express price")
		return
	}

	writeJSONResponse(w, http.StatusOK, QuoteResponse{Available: quote != nil, Quote: quote})
}

// QuoteDepot считает цену курьера от мэрии коммуны до автовокзала.
func (h *DeliveryHandler) QuoteDepot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req DepotQuoteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.OriginCommune) == "" {
		writeErrorResponse(w, http.StatusBadRequest, "origin_commune is required")
		return
	}

	quote, err := h.pricer.PickupToDepotPrice(r.Context(), req.OriginCommune)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to calculate depot price")
		return
	}

	writeJSONResponse(w, http.StatusOK, QuoteResponse{Available: quote != nil, Quote: quote})
}

func validateExpressQuoteRequest(req *ExpressQuoteRequest) error {
	if req.SectorID == uuid.Nil {
		return fmt.Errorf("sector_id is required")
	}

	origins := 0
	if strings.TrimSpace(req.OriginCommune) != "" {
		origins++
	}
	if req.OriginLat != nil || req.OriginLon != nil {
		if req.OriginLat == nil || req.OriginLon == nil {
			return fmt.Errorf("origin_lat and origin_lon must be provided together")
		}
		if *req.OriginLat < -90 || *req.OriginLat > 90 {
			return fmt.Errorf("origin_lat must be between -90 and 90")
		}
		if *req.OriginLon < -180 || *req.OriginLon > 180 {
			return fmt.Errorf("origin_lon must be between -180 and 180")
		}
		origins++
	}
	if req.OriginSectorID != nil {
		origins++
	}

	if origins != 1 {
		return fmt.Errorf("exactly one of origin_commune, origin_lat/origin_lon, origin_sector_id is required")
	}
	return nil
}
