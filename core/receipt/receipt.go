package receipt

// Common receipt types pushed by chat servers.
const (
	TypeRead        = "m.read"
	TypeReadPrivate = "m.read.private"
)

// Receipt asserts that a user's read pointer in a room sits at a specific
// event as of a timestamp.
type Receipt struct {
	// UserID is the reader, e.g. "@alice:example.org".
	UserID string `json:"user_id"`
	// EventID is the event the read pointer sits at.
	EventID string `json:"event_id"`
	// Timestamp is the receipt time in milliseconds since the epoch.
	Timestamp int64 `json:"timestamp"`
	// Type is the receipt type, e.g. "m.read".
	Type string `json:"receipt_type"`
	// RoomID is the owning room. Entries sourced from pagination carry no
	// room tag; untagged entries are wildcard-matchable during sync
	// retraction.
	RoomID string `json:"room_id,omitempty"`
}

// RawReceipt is a single receipt record as decoded from a server payload.
// It is untrusted input: records with a blank user or event, or an event
// that disagrees with the containing batch key, are skipped during
// reconciliation.
type RawReceipt struct {
	UserID    string `json:"user_id"`
	EventID   string `json:"event_id"`
	Timestamp int64  `json:"timestamp"`
	Type      string `json:"receipt_type"`
}

// Batch maps an event ID to the receipt records the server reported for it.
// A nil or empty batch is a no-op, never an error.
type Batch map[string][]RawReceipt

// Config holds tunables for the reconciliation engine.
type Config struct {
	// WildcardRooms enables matching of room-untagged receipts during sync
	// retraction. Pagination-sourced entries carry no room tag; with this
	// disabled they are never retracted by a room-scoped sync.
	WildcardRooms bool `mapstructure:"wildcard_rooms" default:"true"`
	// StreamBuffer is the per-subscriber queue length of the notification
	// stream.
	StreamBuffer int `mapstructure:"stream_buffer" default:"16"`
}
