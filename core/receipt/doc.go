// Package receipt implements the read-receipt reconciliation engine.
//
// The engine keeps an in-memory index of "which users have read up to which
// event, per room" consistent while receiving updates from two structurally
// different sources: authoritative pagination batches and live incremental
// sync deltas.
//
// # Architecture
//
// The package consists of three layers:
//
//  1. Store: the canonical eventID -> receipts index and its primitive,
//     invariant-preserving mutators. No empty lists are retained, and a user
//     appears at most once per event list.
//
//  2. Engine: the only writer of the store. It serializes every
//     reconciliation call behind one mutex, so observers never see a
//     half-applied batch.
//
//  3. Reconcilers: ApplyPaginate treats its batch as the full truth for the
//     events it names (an empty list means "no receipts now"). ApplySync
//     treats each record as a position statement and implicitly retracts the
//     user's previous position in the same room. Sync computes a staged plan
//     against a snapshot of the index and applies it in a second pass, so
//     the index is never mutated while being scanned.
//
// # Invariants
//
// After every reconciliation call:
//   - A user occupies at most one event per room (untagged entries count as
//     wildcard positions, see Config.WildcardRooms).
//   - No event maps to an empty receipt list.
//   - User IDs are unique within one event's list.
//
// # Notifications
//
// Sinks registered via WithChangeSink and WithMoveSink fire after the
// mutations of a call are committed: the move sink once per detected
// reposition, the change sink at most once per call and only if state
// actually changed.
//
// # Usage
//
//	eng := receipt.NewEngine(log,
//	    receipt.WithMoveSink(func(userID, from, to string) { ... }),
//	)
//	changed := eng.ApplySync("!room:example.org", batch)
//	rs := eng.Receipts("$event:example.org")
package receipt
