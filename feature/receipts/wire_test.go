package receipts_test

import (
	"testing"

	"receipt-engine/core/receipt"
	"receipt-engine/feature/receipts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEDU(t *testing.T) {
	content := map[string]any{
		"$evtA": map[string]any{
			"m.read": map[string]any{
				"@a:x": map[string]any{"ts": float64(100)},
				"@b:x": map[string]any{"ts": float64(200)},
			},
			receipt.TypeReadPrivate: map[string]any{
				"@a:x": map[string]any{"ts": float64(150)},
			},
		},
		"$evtB": map[string]any{
			"m.read": map[string]any{
				"@c:x": map[string]any{"ts": float64(300)},
			},
		},
	}

	batch := receipts.DecodeEDU(content)
	require.Len(t, batch, 2)
	assert.Len(t, batch["$evtA"], 3)
	require.Len(t, batch["$evtB"], 1)

	rec := batch["$evtB"][0]
	assert.Equal(t, receipt.RawReceipt{
		UserID:    "@c:x",
		EventID:   "$evtB",
		Timestamp: 300,
		Type:      receipt.TypeRead,
	}, rec)
}

func TestDecodeEDU_StringTimestamp(t *testing.T) {
	// Older servers deliver timestamps as strings.
	content := map[string]any{
		"$evtA": map[string]any{
			"m.read": map[string]any{
				"@a:x": map[string]any{"ts": "12345"},
			},
		},
	}

	batch := receipts.DecodeEDU(content)
	require.Len(t, batch["$evtA"], 1)
	assert.Equal(t, int64(12345), batch["$evtA"][0].Timestamp)
}

func TestDecodeEDU_MalformedEntriesDropped(t *testing.T) {
	content := map[string]any{
		"$evtA": "not a map",
		"$evtB": map[string]any{
			"m.read": []any{"not a map either"},
		},
		"$evtC": map[string]any{
			"m.read": map[string]any{
				"@a:x": map[string]any{"ts": float64(100)},
				// Missing ts payload: coerced to zero, still flattened; the
				// reconciler decides validity.
				"@b:x": "bare",
			},
		},
	}

	batch := receipts.DecodeEDU(content)
	assert.NotContains(t, batch, "$evtA")
	assert.NotContains(t, batch, "$evtB")
	assert.Len(t, batch["$evtC"], 2)
}

func TestDecodeEDU_Empty(t *testing.T) {
	assert.Empty(t, receipts.DecodeEDU(nil))
	assert.Empty(t, receipts.DecodeEDU(map[string]any{}))
}
