package receipt_test

import (
	"testing"

	"receipt-engine/core/receipt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedMove struct {
	userID string
	from   string
	to     string
}

// testSinks captures engine notifications for assertions.
type testSinks struct {
	changes int
	moves   []recordedMove
}

func newTestEngine(t *testing.T) (*receipt.Engine, *testSinks) {
	t.Helper()
	sinks := &testSinks{}
	eng := receipt.NewEngine(zap.NewNop(),
		receipt.WithChangeSink(func() { sinks.changes++ }),
		receipt.WithMoveSink(func(userID, from, to string) {
			sinks.moves = append(sinks.moves, recordedMove{userID: userID, from: from, to: to})
		}),
	)
	return eng, sinks
}

func syncBatch(eventID, userID string, ts int64) receipt.Batch {
	return receipt.Batch{
		eventID: {{UserID: userID, EventID: eventID, Timestamp: ts, Type: receipt.TypeRead}},
	}
}

func TestApplySync_FirstPosition(t *testing.T) {
	eng, sinks := newTestEngine(t)

	changed := eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 100))
	assert.True(t, changed)

	receipts := eng.Receipts("$evtA")
	require.Len(t, receipts, 1)
	assert.Equal(t, "@a:x", receipts[0].UserID)
	assert.Equal(t, int64(100), receipts[0].Timestamp)
	assert.Equal(t, "!r1", receipts[0].RoomID)

	// First position is not a move.
	assert.Empty(t, sinks.moves)
	assert.Equal(t, 1, sinks.changes)
}

func TestApplySync_MoveRetractsOldPosition(t *testing.T) {
	eng, sinks := newTestEngine(t)

	eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 100))
	changed := eng.ApplySync("!r1", syncBatch("$evtB", "@a:x", 200))
	assert.True(t, changed)

	assert.Empty(t, eng.Receipts("$evtA"))
	receipts := eng.Receipts("$evtB")
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(200), receipts[0].Timestamp)

	require.Len(t, sinks.moves, 1)
	assert.Equal(t, recordedMove{userID: "@a:x", from: "$evtA", to: "$evtB"}, sinks.moves[0])
}

func TestApplySync_Idempotence(t *testing.T) {
	eng, sinks := newTestEngine(t)

	batch := syncBatch("$evtA", "@a:x", 100)
	assert.True(t, eng.ApplySync("!r1", batch))
	before := eng.Snapshot()

	// Re-applying the identical batch is a true no-op.
	assert.False(t, eng.ApplySync("!r1", batch))
	assert.Equal(t, before, eng.Snapshot())
	assert.Equal(t, 1, sinks.changes)
	assert.Empty(t, sinks.moves)
}

func TestApplySync_TimestampRefreshIsNotAMove(t *testing.T) {
	eng, sinks := newTestEngine(t)

	eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 100))
	changed := eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 250))
	assert.True(t, changed)

	receipts := eng.Receipts("$evtA")
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(250), receipts[0].Timestamp)
	assert.Empty(t, sinks.moves)
	assert.Equal(t, 2, sinks.changes)
}

func TestApplySync_CrossRoomIsolation(t *testing.T) {
	eng, sinks := newTestEngine(t)

	eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 100))
	eng.ApplySync("!r2", syncBatch("$evtB", "@a:x", 200))

	// The r2 update never retracts the r1 position.
	receiptsA := eng.Receipts("$evtA")
	require.Len(t, receiptsA, 1)
	assert.Equal(t, int64(100), receiptsA[0].Timestamp)

	receiptsB := eng.Receipts("$evtB")
	require.Len(t, receiptsB, 1)
	assert.Equal(t, "!r2", receiptsB[0].RoomID)

	assert.Empty(t, sinks.moves)
}

func TestApplySync_WildcardMatchesUntaggedEntries(t *testing.T) {
	eng, sinks := newTestEngine(t)

	// Pagination-sourced entries carry no room tag.
	eng.ApplyPaginate(receipt.Batch{
		"$evtA": {{UserID: "@a:x", EventID: "$evtA", Timestamp: 100, Type: receipt.TypeRead}},
	})

	changed := eng.ApplySync("!r1", syncBatch("$evtB", "@a:x", 200))
	assert.True(t, changed)

	assert.Empty(t, eng.Receipts("$evtA"))
	require.Len(t, eng.Receipts("$evtB"), 1)
	require.Len(t, sinks.moves, 1)
	assert.Equal(t, recordedMove{userID: "@a:x", from: "$evtA", to: "$evtB"}, sinks.moves[0])
}

func TestApplySync_WildcardDisabled(t *testing.T) {
	eng := receipt.NewEngine(zap.NewNop(), receipt.WithoutWildcardRooms())

	eng.ApplyPaginate(receipt.Batch{
		"$evtA": {{UserID: "@a:x", EventID: "$evtA", Timestamp: 100, Type: receipt.TypeRead}},
	})
	eng.ApplySync("!r1", syncBatch("$evtB", "@a:x", 200))

	// Untagged entry survives: no wildcard retraction.
	assert.Len(t, eng.Receipts("$evtA"), 1)
	assert.Len(t, eng.Receipts("$evtB"), 1)
}

func TestApplySync_HighestTimestampWinsWithinBatch(t *testing.T) {
	eng, _ := newTestEngine(t)

	// Two position statements for the same user in one batch: the record
	// with the highest timestamp determines the final position, regardless
	// of map iteration order.
	batch := receipt.Batch{
		"$evtA": {{UserID: "@a:x", EventID: "$evtA", Timestamp: 300, Type: receipt.TypeRead}},
		"$evtB": {{UserID: "@a:x", EventID: "$evtB", Timestamp: 100, Type: receipt.TypeRead}},
	}
	assert.True(t, eng.ApplySync("!r1", batch))

	assert.Empty(t, eng.Receipts("$evtB"))
	receipts := eng.Receipts("$evtA")
	require.Len(t, receipts, 1)
	assert.Equal(t, int64(300), receipts[0].Timestamp)
}

func TestApplySync_InvalidRecordsSkipped(t *testing.T) {
	eng, _ := newTestEngine(t)

	batch := receipt.Batch{
		"$evtA": {
			{UserID: "", EventID: "$evtA", Timestamp: 100, Type: receipt.TypeRead},
			{UserID: "@a:x", EventID: "", Timestamp: 100, Type: receipt.TypeRead},
			{UserID: "@b:x", EventID: "$mismatch", Timestamp: 100, Type: receipt.TypeRead},
			{UserID: "@c:x", EventID: "$evtA", Timestamp: 100, Type: receipt.TypeRead},
		},
	}

	// The one valid record is applied; the rest never abort the batch.
	assert.True(t, eng.ApplySync("!r1", batch))
	receipts := eng.Receipts("$evtA")
	require.Len(t, receipts, 1)
	assert.Equal(t, "@c:x", receipts[0].UserID)
}

func TestApplySync_EmptyBatchIsNoOp(t *testing.T) {
	eng, sinks := newTestEngine(t)

	assert.False(t, eng.ApplySync("!r1", nil))
	assert.False(t, eng.ApplySync("!r1", receipt.Batch{}))
	assert.Equal(t, 0, sinks.changes)
}

func TestApplySync_ChangeSinkFiresOncePerBatch(t *testing.T) {
	eng, sinks := newTestEngine(t)

	batch := receipt.Batch{
		"$evtA": {{UserID: "@a:x", EventID: "$evtA", Timestamp: 100, Type: receipt.TypeRead}},
		"$evtB": {{UserID: "@b:x", EventID: "$evtB", Timestamp: 100, Type: receipt.TypeRead}},
	}
	assert.True(t, eng.ApplySync("!r1", batch))
	assert.Equal(t, 1, sinks.changes)
}

// TestApplySync_SinglePositionInvariant drives a user through a series of
// sync calls and checks that at most one event holds their receipt for the
// room after every step.
func TestApplySync_SinglePositionInvariant(t *testing.T) {
	eng, _ := newTestEngine(t)

	events := []string{"$e1", "$e2", "$e3", "$e2", "$e1"}
	for i, eventID := range events {
		eng.ApplySync("!r1", syncBatch(eventID, "@a:x", int64(100+i*10)))

		positions := 0
		for evt, receipts := range eng.Snapshot() {
			for _, r := range receipts {
				if r.UserID == "@a:x" && r.RoomID == "!r1" {
					positions++
					assert.Equal(t, eventID, evt)
				}
			}
		}
		assert.Equal(t, 1, positions)
	}
}

// TestEngine_EndToEnd replays the full session scenario: live sync, a move,
// then a bulk retraction on room leave.
func TestEngine_EndToEnd(t *testing.T) {
	eng, sinks := newTestEngine(t)

	eng.ApplySync("!r1", syncBatch("$evtA", "@a:x", 100))
	receipts := eng.Receipts("$evtA")
	require.Len(t, receipts, 1)
	assert.Equal(t, receipt.Receipt{
		UserID: "@a:x", EventID: "$evtA", Timestamp: 100,
		Type: receipt.TypeRead, RoomID: "!r1",
	}, receipts[0])

	eng.ApplySync("!r1", syncBatch("$evtB", "@a:x", 200))
	assert.Empty(t, eng.Receipts("$evtA"))
	require.Len(t, eng.Receipts("$evtB"), 1)
	require.Len(t, sinks.moves, 1)
	assert.Equal(t, recordedMove{userID: "@a:x", from: "$evtA", to: "$evtB"}, sinks.moves[0])

	removed := eng.RemoveUserReceipts("@a:x", "")
	assert.Equal(t, 1, removed)
	assert.Empty(t, eng.Receipts("$evtB"))
}
