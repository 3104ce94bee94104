package receipt

import (
	"sort"

	"go.uber.org/zap"
)

// ApplySync applies a batch of live per-event receipt deltas for roomID.
// Each record is a position statement: a user's read pointer in the room now
// sits at the named event, implicitly retracting any previous position the
// user held there. Room scoping is supplied by the caller's channel context;
// the payload itself does not carry it.
//
// The batch is reduced to one winning record per user (highest timestamp),
// then a staged plan of retractions and writes is computed against a
// snapshot of the index and applied in a second pass. The move sink fires
// once per retracted position, the change sink at most once.
//
// Returns whether any record in the batch produced a change.
func (e *Engine) ApplySync(roomID string, batch Batch) bool {
	if len(batch) == 0 {
		return false
	}

	e.mu.Lock()
	plan := e.buildSyncPlan(roomID, batch)
	for _, rm := range plan.removals {
		e.store.RemoveFrom(rm.eventID, rm.userID)
	}
	for _, w := range plan.writes {
		e.store.Upsert(w.EventID, w)
	}
	e.mu.Unlock()

	for _, mv := range plan.moves {
		e.logger.Debug("read pointer moved",
			zap.String("user_id", mv.userID),
			zap.String("room_id", roomID),
			zap.String("from_event_id", mv.from),
			zap.String("to_event_id", mv.to),
		)
		e.notifyMove(mv.userID, mv.from, mv.to)
	}
	if plan.changed {
		e.notifyChange()
	}
	return plan.changed
}

// syncPlan is the staged outcome of one sync batch: retractions to apply,
// receipts to write, and the moves detected while scanning. Computing it
// fully before mutating keeps the scan free of iterator-invalidation
// hazards.
type syncPlan struct {
	removals []removal
	writes   []Receipt
	moves    []move
	changed  bool
}

type removal struct {
	eventID string
	userID  string
}

type move struct {
	userID string
	from   string
	to     string
}

// buildSyncPlan scans the current index and stages the mutations for the
// batch. Caller holds the engine mutex.
func (e *Engine) buildSyncPlan(roomID string, batch Batch) *syncPlan {
	plan := &syncPlan{}
	for _, rec := range e.winningRecords(batch) {
		existing := e.store.findUser(rec.UserID, roomID, e.wildcard)

		needWrite := true
		for _, loc := range existing {
			if loc.eventID == rec.EventID {
				if loc.receipt.Timestamp == rec.Timestamp {
					// Identical position and timestamp: true no-op.
					needWrite = false
					continue
				}
				// Same event, newer timestamp: replace in place, not a move.
				plan.changed = true
				continue
			}
			// Positioned elsewhere in this room: stage the retraction and
			// record the move. RemoveFrom drops the event key if the list
			// empties.
			plan.removals = append(plan.removals, removal{eventID: loc.eventID, userID: rec.UserID})
			plan.moves = append(plan.moves, move{userID: rec.UserID, from: loc.eventID, to: rec.EventID})
			plan.changed = true
		}
		if len(existing) == 0 {
			plan.changed = true
		}

		if needWrite {
			plan.writes = append(plan.writes, Receipt{
				UserID:    rec.UserID,
				EventID:   rec.EventID,
				Timestamp: rec.Timestamp,
				Type:      rec.Type,
				RoomID:    roomID,
			})
		}
	}
	return plan
}

// winningRecords validates every record in the batch and reduces it to one
// record per user: the one with the highest timestamp. Batches are maps, so
// entries are walked in sorted event order to keep the outcome independent
// of map iteration; on equal timestamps the record of the lexically smaller
// event wins.
func (e *Engine) winningRecords(batch Batch) []RawReceipt {
	byUser := make(map[string]RawReceipt)
	var order []string
	for _, eventID := range batchEvents(batch) {
		for _, rec := range e.validRecords(eventID, batch[eventID]) {
			best, ok := byUser[rec.UserID]
			if !ok {
				byUser[rec.UserID] = rec
				order = append(order, rec.UserID)
				continue
			}
			if rec.Timestamp > best.Timestamp {
				byUser[rec.UserID] = rec
			}
		}
	}

	winners := make([]RawReceipt, 0, len(order))
	for _, userID := range order {
		winners = append(winners, byUser[userID])
	}
	return winners
}

// batchEvents returns the batch's event keys in sorted order.
func batchEvents(batch Batch) []string {
	events := make([]string, 0, len(batch))
	for eventID := range batch {
		events = append(events, eventID)
	}
	sort.Strings(events)
	return events
}
