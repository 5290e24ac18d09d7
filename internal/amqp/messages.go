package amqp

import (
	"encoding/json"
	"time"
)

// RefreshRequest asks the worker to fetch and aggregate the transaction source.
type RefreshRequest struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRefreshRequest creates a refresh request stamped with the current time.
func NewRefreshRequest(requestedBy string) *RefreshRequest {
	return &RefreshRequest{RequestedBy: requestedBy, Timestamp: time.Now()}
}

// ReportReady announces that a run was aggregated and stored. Consumers load
// the run from storage by ID; the message only carries headline figures.
type ReportReady struct {
	RunID        string    `json:"run_id"`
	TotalCents   int64     `json:"total_cents"`
	Transactions int       `json:"transactions"`
	Days         int       `json:"days"`
	Categories   int       `json:"categories"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestFromJSON creates a message from JSON bytes
func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToJSON converts the message to JSON bytes
func (m *ReportReady) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportReadyFromJSON creates a message from JSON bytes
func ReportReadyFromJSON(data []byte) (*ReportReady, error) {
	var msg ReportReady
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
