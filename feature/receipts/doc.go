// Package receipts exposes the read-receipt reconciliation engine over the
// session gateway.
//
// The feature owns one engine instance per process lifetime (the session):
// handlers feed decoded server payloads into the sync and pagination
// reconcilers, and a websocket stream pushes the engine's change and move
// notifications to subscribers (typically the UI layer re-reading state
// after a change frame).
//
// # Routes
//
//   - POST   /receipts/rooms/:roomId/sync:  apply a live sync batch
//   - POST   /receipts/rooms/:roomId/edu:   apply a wire-format receipt EDU
//   - POST   /receipts/paginate:            apply an authoritative batch
//   - GET    /receipts/events/:eventId:     snapshot read
//   - DELETE /receipts/users/:userId:       bulk retraction (?room= scope)
//   - GET    /receipts/stream:              websocket notification feed
//
// Handlers never touch the receipt store directly; all mutation flows
// through the engine's reconcilers and maintenance API.
package receipts
