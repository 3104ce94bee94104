package receipt

import (
	"sync"

	"go.uber.org/zap"
)

// ChangeFunc is notified after a reconciliation call that changed the index.
type ChangeFunc func()

// MoveFunc is notified once per detected reposition: userID's read pointer
// was retracted from fromEventID and now sits at toEventID.
type MoveFunc func(userID, fromEventID, toEventID string)

// Engine is the sole owner of the receipt index. Every reconciliation call
// runs as one atomic unit behind a single mutex; sinks fire after the call's
// mutations are committed, so observers never read partial state.
type Engine struct {
	mu       sync.Mutex
	store    *Store
	logger   *zap.Logger
	wildcard bool
	onChange ChangeFunc
	onMove   MoveFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithChangeSink registers the change notification callback.
func WithChangeSink(fn ChangeFunc) Option {
	return func(e *Engine) { e.onChange = fn }
}

// WithMoveSink registers the move notification callback.
func WithMoveSink(fn MoveFunc) Option {
	return func(e *Engine) { e.onMove = fn }
}

// WithoutWildcardRooms disables retraction of room-untagged receipts during
// sync. See Config.WildcardRooms.
func WithoutWildcardRooms() Option {
	return func(e *Engine) { e.wildcard = false }
}

// NewEngine creates a fresh, empty engine. Each chat session owns its own
// instance; there is no process-wide state.
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:    NewStore(),
		logger:   logger,
		wildcard: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Receipts returns a snapshot of the receipts recorded for eventID. The
// returned slice is a copy; mutating it does not affect the index.
func (e *Engine) Receipts(eventID string) []Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(eventID)
}

// Snapshot returns a deep copy of the whole index, keyed by event ID.
func (e *Engine) Snapshot() map[string][]Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// RemoveUserReceipts retracts every receipt belonging to userID and returns
// the number removed. A non-empty roomScope restricts removal to that room
// (untagged entries included). Used by room-leave and cache-eviction flows.
func (e *Engine) RemoveUserReceipts(userID, roomScope string) int {
	e.mu.Lock()
	removed := e.store.RemoveUser(userID, roomScope)
	e.mu.Unlock()

	if removed > 0 {
		e.logger.Debug("removed user receipts",
			zap.String("user_id", userID),
			zap.String("room_scope", roomScope),
			zap.Int("removed", removed),
		)
	}
	return removed
}

// validRecords filters one batch entry down to usable records. Malformed
// records are skipped with a diagnostic and never abort the batch.
func (e *Engine) validRecords(eventID string, records []RawReceipt) []RawReceipt {
	valid := make([]RawReceipt, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.UserID == "":
			e.logger.Warn("skipping receipt with blank user_id",
				zap.String("event_id", eventID))
		case rec.EventID == "":
			e.logger.Warn("skipping receipt with blank event_id",
				zap.String("user_id", rec.UserID))
		case rec.EventID != eventID:
			e.logger.Warn("skipping receipt with mismatched event_id",
				zap.String("user_id", rec.UserID),
				zap.String("batch_event_id", eventID),
				zap.String("record_event_id", rec.EventID))
		default:
			valid = append(valid, rec)
		}
	}
	return valid
}

func (e *Engine) notifyChange() {
	if e.onChange != nil {
		e.onChange()
	}
}

func (e *Engine) notifyMove(userID, from, to string) {
	if e.onMove != nil {
		e.onMove(userID, from, to)
	}
}
