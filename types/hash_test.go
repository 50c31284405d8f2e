package types

import "testing"

func TestHashHexRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"all zero", make([]byte, 32)},
		{"ascending", []byte{0x01, 0x02, 0x03, 0x04}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BytesToHash(tt.in)
			got := HexToHash(h.Hex())
			if got != h {
				t.Fatalf("hex round trip mismatch: got %x want %x", got, h)
			}
		})
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatal("zero-value Hash should report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Fatal("non-zero Hash should not report IsZero")
	}
}

func TestHashJSON(t *testing.T) {
	h := BytesToHash([]byte{0xab, 0xcd})
	data, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var back Hash
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if back != h {
		t.Fatalf("json round trip mismatch: got %x want %x", back, h)
	}
}

func TestQueueItemStatusString(t *testing.T) {
	tests := []struct {
		status UpsQueueItemStatus
		want   string
	}{
		{StatusPending, "Pending"},
		{StatusPreviewSuccess, "PreviewSuccess"},
		{StatusPreviewFailed, "PreviewFailed"},
		{StatusExecuting, "Executing"},
		{StatusSuccess, "Success"},
		{StatusFailed, "Failed"},
		{UpsQueueItemStatus(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("status %d: got %q want %q", tt.status, got, tt.want)
		}
	}
}
