package receipts

import (
	"receipt-engine/core/receipt"

	"go.uber.org/zap"
)

// Service wires a session-scoped engine to the notification stream.
type Service struct {
	engine *receipt.Engine
	hub    *Hub
	logger *zap.Logger
}

// NewService creates the service with a fresh engine whose sinks broadcast
// on the hub.
func NewService(logger *zap.Logger, cfg receipt.Config) *Service {
	hub := NewHub(logger, cfg.StreamBuffer)

	opts := []receipt.Option{
		receipt.WithChangeSink(hub.NotifyChange),
		receipt.WithMoveSink(hub.NotifyMove),
	}
	if !cfg.WildcardRooms {
		opts = append(opts, receipt.WithoutWildcardRooms())
	}

	return &Service{
		engine: receipt.NewEngine(logger, opts...),
		hub:    hub,
		logger: logger,
	}
}

// ApplySync feeds a live delta batch for roomID into the sync reconciler.
func (s *Service) ApplySync(roomID string, batch receipt.Batch) bool {
	return s.engine.ApplySync(roomID, batch)
}

// ApplyPaginate feeds an authoritative pagination batch into the engine.
func (s *Service) ApplyPaginate(batch receipt.Batch) bool {
	return s.engine.ApplyPaginate(batch)
}

// Receipts returns the merged receipts recorded for eventID.
func (s *Service) Receipts(eventID string) []receipt.Receipt {
	return s.engine.Receipts(eventID)
}

// RemoveUserReceipts retracts a user's receipts, optionally scoped to one
// room, and returns the number removed.
func (s *Service) RemoveUserReceipts(userID, roomScope string) int {
	return s.engine.RemoveUserReceipts(userID, roomScope)
}
