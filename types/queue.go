package types

// UpsQueueItemStatus is a position in the queue's status lattice:
//
//	Pending → PreviewSuccess → Executing → Success
//	       ↘ PreviewFailed                → Failed
type UpsQueueItemStatus uint8

const (
	StatusPending UpsQueueItemStatus = iota
	StatusPreviewSuccess
	StatusPreviewFailed
	StatusExecuting
	StatusSuccess
	StatusFailed
)

// String implements fmt.Stringer.
func (s UpsQueueItemStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusPreviewSuccess:
		return "PreviewSuccess"
	case StatusPreviewFailed:
		return "PreviewFailed"
	case StatusExecuting:
		return "Executing"
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// MarshalJSON encodes the status as its string name.
func (s UpsQueueItemStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UpsQueueItem is one queued CFC call and its progress through preview,
// CFT verification, and execution.
type UpsQueueItem struct {
	Index            uint32                 `json:"index"`
	CfcId            CfcId                  `json:"cfcId"`
	Args             string                 `json:"args"`
	Status           UpsQueueItemStatus     `json:"status"`
	PreviewResult    *ReadOnlyPreviewResult `json:"previewResult,omitempty"`
	CftVerification  *CftVerificationResult `json:"cftVerification,omitempty"`
}

// UpsAccumulatedInfo tracks monotonic counters across a queue's lifetime,
// reset only by Clear — and even then the UCON roots survive (§4.5).
type UpsAccumulatedInfo struct {
	TotalItems            uint32 `json:"totalItems"`
	TotalProvingTimeMs    uint64 `json:"totalProvingTimeMs"`
	EstEndCapSizeKb       uint64 `json:"estEndCapSizeKb"`
	OldUconRoot           Hash   `json:"oldUconRoot"`
	NewUconRoot           Hash   `json:"newUconRoot"`
}
