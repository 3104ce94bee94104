package receipts

import (
	"receipt-engine/core/logger"
	"receipt-engine/core/receipt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for receipts.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the receipts routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/receipts")
	group.Get("/events/:eventId", h.HandleGetReceipts)
	group.Post("/rooms/:roomId/sync", h.HandleSync)
	group.Post("/rooms/:roomId/edu", h.HandleEDU)
	group.Post("/paginate", h.HandlePaginate)
	group.Delete("/users/:userId", h.HandleRemoveUser)

	group.Use("/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	group.Get("/stream", websocket.New(func(conn *websocket.Conn) {
		h.service.hub.Serve(conn)
	}))
}

// HandleGetReceipts returns the merged receipts recorded for one event.
func (h *Handler) HandleGetReceipts(c *fiber.Ctx) error {
	eventID := c.Params("eventId")
	return c.JSON(fiber.Map{
		"event_id": eventID,
		"receipts": h.service.Receipts(eventID),
	})
}

// HandleSync applies a live delta batch for the room named in the path.
// The body is a Batch: {eventID: [receipt records]}.
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	// The param string is backed by the request buffer; it outlives the
	// handler as Receipt.RoomID, so it must be copied.
	roomID := utils.CopyString(c.Params("roomId"))
	l := logger.WithRayID(h.service.logger, c)

	var batch receipt.Batch
	if err := c.BodyParser(&batch); err != nil {
		l.Warn("Sync batch rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	changed := h.service.ApplySync(roomID, batch)
	return c.JSON(fiber.Map{"changed": changed})
}

// HandleEDU applies a wire-format receipt EDU for the room named in the
// path, flattening it into a Batch first.
func (h *Handler) HandleEDU(c *fiber.Ctx) error {
	roomID := utils.CopyString(c.Params("roomId"))
	l := logger.WithRayID(h.service.logger, c)

	var content map[string]any
	if err := c.BodyParser(&content); err != nil {
		l.Warn("Receipt EDU rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	changed := h.service.ApplySync(roomID, DecodeEDU(content))
	return c.JSON(fiber.Map{"changed": changed})
}

// HandlePaginate applies an authoritative batch from a historical fetch.
func (h *Handler) HandlePaginate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var batch receipt.Batch
	if err := c.BodyParser(&batch); err != nil {
		l.Warn("Pagination batch rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	changed := h.service.ApplyPaginate(batch)
	return c.JSON(fiber.Map{"changed": changed})
}

// HandleRemoveUser retracts every receipt of a user, optionally scoped to
// the room given in the "room" query parameter. Used by room-leave and
// cache-eviction flows.
func (h *Handler) HandleRemoveUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	roomScope := c.Query("room")

	removed := h.service.RemoveUserReceipts(userID, roomScope)
	return c.JSON(fiber.Map{"removed": removed})
}
