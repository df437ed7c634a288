// Package receipt derives a message's effective delivery status from its
// receipt sets and the owning chat's participant roster.
package receipt

type Status string

const (
	StatusSent               Status = "sent"
	StatusPartiallyDelivered Status = "partially_delivered"
	StatusDelivered          Status = "delivered"
	StatusPartiallyRead      Status = "partially_read"
	StatusRead               Status = "read"
)

// Derive computes the status of a message sent by senderID in a chat with
// the given roster. Receipt entries from ids no longer in the roster are
// ignored, so a participant who left a chat never skews the result.
func Derive(senderID int, participants, deliveredTo, readBy []int) Status {
	recipients := make(map[int]bool)
	for _, id := range participants {
		if id != senderID {
			recipients[id] = true
		}
	}

	delivered := countIn(deliveredTo, recipients)
	read := countIn(readBy, recipients)

	switch {
	case read == len(recipients):
		return StatusRead
	case read > 0:
		return StatusPartiallyRead
	case delivered == len(recipients):
		return StatusDelivered
	case delivered > 0:
		return StatusPartiallyDelivered
	default:
		return StatusSent
	}
}

func countIn(ids []int, roster map[int]bool) int {
	seen := make(map[int]bool)
	for _, id := range ids {
		if roster[id] {
			seen[id] = true
		}
	}
	return len(seen)
}
