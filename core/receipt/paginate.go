package receipt

import "go.uber.org/zap"

// ApplyPaginate applies an authoritative batch sourced from a historical
// paged fetch. The batch is the full truth for exactly the events it names:
// after the call, each named event's list equals the batch's validated
// records, and an explicit empty list deletes the event from the index.
// Events absent from the batch are untouched.
//
// Returns whether any event's state actually changed. The change sink fires
// at most once, after the whole batch is committed.
func (e *Engine) ApplyPaginate(batch Batch) bool {
	if len(batch) == 0 {
		return false
	}

	e.mu.Lock()
	changed := false
	for _, eventID := range batchEvents(batch) {
		// Build the target list, deduplicated by user (last record wins) so
		// set comparison sees what Replace would actually store.
		target := make([]Receipt, 0, len(batch[eventID]))
		seen := make(map[string]int)
		for _, rec := range e.validRecords(eventID, batch[eventID]) {
			r := Receipt{
				UserID:    rec.UserID,
				EventID:   rec.EventID,
				Timestamp: rec.Timestamp,
				Type:      rec.Type,
			}
			if i, ok := seen[r.UserID]; ok {
				target[i] = r
				continue
			}
			seen[r.UserID] = len(target)
			target = append(target, r)
		}
		if sameReceiptSet(e.store.Get(eventID), target) {
			continue
		}
		e.store.Replace(eventID, target)
		changed = true
	}
	e.mu.Unlock()

	if changed {
		e.logger.Debug("pagination batch applied", zap.Int("events", len(batch)))
		e.notifyChange()
	}
	return changed
}

// receiptKey identifies a receipt for set comparison. Pagination change
// detection is set equality over (user, timestamp, event) triples.
type receiptKey struct {
	userID    string
	timestamp int64
	eventID   string
}

// sameReceiptSet reports whether current and target describe the same set of
// (user, timestamp, event) triples.
func sameReceiptSet(current, target []Receipt) bool {
	if len(current) != len(target) {
		return false
	}
	keys := make(map[receiptKey]struct{}, len(current))
	for _, r := range current {
		keys[receiptKey{r.UserID, r.Timestamp, r.EventID}] = struct{}{}
	}
	for _, r := range target {
		if _, ok := keys[receiptKey{r.UserID, r.Timestamp, r.EventID}]; !ok {
			return false
		}
	}
	return true
}
