package receipts

import (
	"receipt-engine/core/receipt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature bundles the receipts service for the feature loader.
type Feature struct {
	service *Service
}

// NewFeature creates the receipts feature with its own engine instance.
func NewFeature(logger *zap.Logger, cfg receipt.Config) *Feature {
	return &Feature{service: NewService(logger, cfg)}
}

// Name implements loader.Feature.
func (f *Feature) Name() string {
	return "receipts"
}

// IsEnabled implements loader.Feature. The receipts feature is the point of
// the service and is always on.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load implements loader.Feature.
func (f *Feature) Load(app fiber.Router) error {
	NewHandler(f.service).RegisterRoutes(app)
	return nil
}
