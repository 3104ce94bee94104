package receipt

import "sort"

// Store owns the canonical eventID -> receipts index. All mutation goes
// through its primitives so the structural invariants (no empty lists, one
// entry per user per list) cannot be violated by callers.
//
// Store is not safe for concurrent use; the Engine serializes access to it.
type Store struct {
	index map[string][]Receipt
}

// NewStore creates an empty receipt index.
func NewStore() *Store {
	return &Store{index: make(map[string][]Receipt)}
}

// Get returns a copy of the receipt list for eventID, or an empty slice if
// the event is unknown.
func (s *Store) Get(eventID string) []Receipt {
	receipts, ok := s.index[eventID]
	if !ok {
		return []Receipt{}
	}
	out := make([]Receipt, len(receipts))
	copy(out, receipts)
	return out
}

// Upsert inserts or replaces the entry for r.UserID in eventID's list,
// creating the list if absent.
func (s *Store) Upsert(eventID string, r Receipt) {
	receipts := s.index[eventID]
	for i := range receipts {
		if receipts[i].UserID == r.UserID {
			receipts[i] = r
			return
		}
	}
	s.index[eventID] = append(receipts, r)
}

// Replace overwrites eventID's list with target, deduplicated by user ID
// (the last record for a user wins). An empty target deletes the event key
// entirely. This is the pagination reconciler's full-replacement primitive.
func (s *Store) Replace(eventID string, target []Receipt) {
	if len(target) == 0 {
		delete(s.index, eventID)
		return
	}
	deduped := make([]Receipt, 0, len(target))
	seen := make(map[string]int, len(target))
	for _, r := range target {
		if i, ok := seen[r.UserID]; ok {
			deduped[i] = r
			continue
		}
		seen[r.UserID] = len(deduped)
		deduped = append(deduped, r)
	}
	s.index[eventID] = deduped
}

// RemoveFrom removes userID's entry from eventID's list if present. When the
// list becomes empty the event key is deleted, never retained empty.
func (s *Store) RemoveFrom(eventID, userID string) bool {
	receipts, ok := s.index[eventID]
	if !ok {
		return false
	}
	for i := range receipts {
		if receipts[i].UserID != userID {
			continue
		}
		receipts = append(receipts[:i], receipts[i+1:]...)
		if len(receipts) == 0 {
			delete(s.index, eventID)
		} else {
			s.index[eventID] = receipts
		}
		return true
	}
	return false
}

// RemoveUser removes every receipt belonging to userID and returns the
// number removed. A non-empty roomScope restricts removal to receipts owned
// by that room; untagged entries match any scope.
func (s *Store) RemoveUser(userID, roomScope string) int {
	removed := 0
	for _, eventID := range s.Events() {
		receipts := s.index[eventID]
		kept := receipts[:0]
		for _, r := range receipts {
			if r.UserID == userID && matchesRoom(r.RoomID, roomScope) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.index, eventID)
		} else {
			s.index[eventID] = kept
		}
	}
	return removed
}

// Events returns a sorted snapshot of the event keys currently indexed.
// Mutating the store while ranging over the snapshot is safe.
func (s *Store) Events() []string {
	events := make([]string, 0, len(s.index))
	for eventID := range s.index {
		events = append(events, eventID)
	}
	sort.Strings(events)
	return events
}

// Snapshot returns a deep copy of the whole index.
func (s *Store) Snapshot() map[string][]Receipt {
	out := make(map[string][]Receipt, len(s.index))
	for eventID, receipts := range s.index {
		cp := make([]Receipt, len(receipts))
		copy(cp, receipts)
		out[eventID] = cp
	}
	return out
}

// locator pins a stored receipt to the event list holding it.
type locator struct {
	eventID string
	receipt Receipt
}

// findUser returns every stored receipt for userID whose room tag matches
// roomID, in sorted event order. With the wildcard disabled, untagged
// entries never match.
func (s *Store) findUser(userID, roomID string, wildcard bool) []locator {
	var found []locator
	for _, eventID := range s.Events() {
		for _, r := range s.index[eventID] {
			if r.UserID != userID {
				continue
			}
			if r.RoomID == roomID || (wildcard && r.RoomID == "") {
				found = append(found, locator{eventID: eventID, receipt: r})
			}
		}
	}
	return found
}

// matchesRoom reports whether a stored receipt's room tag falls under a
// removal scope. An empty scope matches everything; an untagged receipt
// matches any scope.
func matchesRoom(roomID, scope string) bool {
	return scope == "" || roomID == "" || roomID == scope
}
