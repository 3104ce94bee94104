package receipts

import (
	"receipt-engine/core/receipt"
	"receipt-engine/core/utils"
)

// DecodeEDU flattens a wire-format receipt EDU into a Batch.
//
// The wire shape nests by event, receipt type, then user:
//
//	{
//	  "$event:example.org": {
//	    "m.read": {
//	      "@alice:example.org": {"ts": 1661457600000}
//	    }
//	  }
//	}
//
// Timestamps arrive as untyped JSON numbers (and occasionally strings from
// older servers); both are coerced. Entries that don't match the shape are
// dropped silently here; the reconciler's own validation logs anything
// structurally invalid that survives flattening.
func DecodeEDU(content map[string]any) receipt.Batch {
	batch := make(receipt.Batch, len(content))
	for eventID, byType := range content {
		typed, ok := byType.(map[string]any)
		if !ok {
			continue
		}
		for receiptType, byUser := range typed {
			users, ok := byUser.(map[string]any)
			if !ok {
				continue
			}
			for userID, payload := range users {
				var ts int64
				if fields, ok := payload.(map[string]any); ok {
					ts = utils.ToInt64(fields["ts"])
				} else {
					// Some relays collapse the payload to a bare timestamp.
					ts = utils.ToInt64(payload)
				}
				batch[eventID] = append(batch[eventID], receipt.RawReceipt{
					UserID:    userID,
					EventID:   eventID,
					Timestamp: ts,
					Type:      receiptType,
				})
			}
		}
	}
	return batch
}
