package domain

import "time"

// Request statuses stored in the ledger
const (
	RequestStatusOK    = "ok"
	RequestStatusError = "error"
)

// RequestRecord is the metadata kept for one generation call.
// Prompt text, upload bytes and model output are never recorded.
type RequestRecord struct {
	RequestID   string
	Endpoint    string
	MIMEType    string
	UploadBytes int64
	Status      string
	Latency     time.Duration
	Error       string
	CreatedAt   time.Time
}
