package handlers

import (
	"context"

	"document-delivery/internal/models"
	"document-delivery/internal/services"

	"github.com/google/uuid"
)

// ----- Delivery -----

type ExpressPricer interface {
	ExpressPriceToSector(ctx context.Context, origin services.Origin, sectorID uuid.UUID) (*models.DistanceQuote, error)
	SectorPrice(ctx context.Context, fromSectorID, toSectorID uuid.UUID) (*models.DistanceQuote, error)
	PickupToDepotPrice(ctx context.Context, originCommune string) (*models.DistanceQuote, error)
	ListCommunesWithActiveSectors(ctx context.Context) ([]models.CommuneSectors, error)
	IsExpressAvailable(ctx context.Context, commune string) (bool, error)
	ActiveZones(ctx context.Context) ([]models.DeliveryZone, error)
}

// ----- Pricing -----

type DocumentPricer interface {
	BuildOrderLine(ctx context.Context, docType models.DocumentType, city string, service models.ServiceType, copies int) (models.DocumentOrderLine, error)
}

// ----- Orders -----

type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateDocumentOrderRequest) (*models.DocumentOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.DocumentOrder, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) error
}

// ----- Reports -----

type BillingReporter interface {
	GetBillingReport(ctx context.Context, filter *models.BillingReportFilter) (*models.BillingReport, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
