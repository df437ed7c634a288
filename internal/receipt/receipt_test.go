package receipt

import "testing"

func TestDerive(t *testing.T) {
	participants := []int{1, 2, 3}

	tests := []struct {
		name        string
		senderID    int
		deliveredTo []int
		readBy      []int
		want        Status
	}{
		{"no receipts", 1, nil, nil, StatusSent},
		{"one of two delivered", 1, []int{2}, nil, StatusPartiallyDelivered},
		{"all delivered", 1, []int{2, 3}, nil, StatusDelivered},
		{"one of two read", 1, []int{2, 3}, []int{2}, StatusPartiallyRead},
		{"all read", 1, nil, []int{2, 3}, StatusRead},
		{"read wins over delivery gaps", 1, []int{2}, []int{3}, StatusPartiallyRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.senderID, participants, tt.deliveredTo, tt.readBy)
			if got != tt.want {
				t.Errorf("Derive() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDeriveIgnoresDepartedParticipants(t *testing.T) {
	// User 4 left the chat; their receipts count for nothing, in the
	// numerator or the denominator.
	got := Derive(1, []int{1, 2}, []int{2, 4}, []int{2, 4})
	if got != StatusRead {
		t.Errorf("Derive() = %s, want %s", got, StatusRead)
	}
}

func TestDeriveDedupsReceiptLists(t *testing.T) {
	got := Derive(1, []int{1, 2, 3}, []int{2, 2, 2}, nil)
	if got != StatusPartiallyDelivered {
		t.Errorf("Derive() = %s, want %s", got, StatusPartiallyDelivered)
	}
}

func TestDeriveIgnoresSenderReceipts(t *testing.T) {
	// A sender id that leaked into the receipt sets never affects status.
	got := Derive(1, []int{1, 2}, []int{1}, []int{1})
	if got != StatusSent {
		t.Errorf("Derive() = %s, want %s", got, StatusSent)
	}
}
