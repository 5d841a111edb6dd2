// Package scan owns the append-only scan event log: the event model, its
// validation at the ingestion boundary, and the store implementations the
// fraud detector aggregates over.
package scan

import (
	"time"

	"github.com/google/uuid"

	"veriscan/pkg/geo"
)

// Result classifies the outcome of one verification attempt. The value is
// fixed at creation and never rewritten.
type Result string

const (
	ResultNotFound    Result = "NOT_FOUND"
	ResultAuthentic   Result = "AUTHENTIC"
	ResultAlreadySold Result = "ALREADY_SOLD"
)

// Valid reports whether r is one of the three known results.
func (r Result) Valid() bool {
	switch r {
	case ResultNotFound, ResultAuthentic, ResultAlreadySold:
		return true
	}
	return false
}

// LedgerSnapshot captures what the ledger said at scan time. Kept on the
// event so analytics never need to re-query the chain.
type LedgerSnapshot struct {
	Manufacturer string `json:"manufacturer,omitempty"`
	BatchNumber  string `json:"batchNumber,omitempty"`
	Status       string `json:"status,omitempty"`
}

// DeviceSnapshot records the scanning device as reported by the client.
type DeviceSnapshot struct {
	UserAgent string `json:"userAgent,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// Event is one immutable record of a single verification attempt.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    string          `json:"productId"`
	Result       Result          `json:"scanResult"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Location     *geo.Point      `json:"location,omitempty"`
	HumanAddress string          `json:"address,omitempty"`
	Ledger       LedgerSnapshot  `json:"blockchainData"`
	Device       *DeviceSnapshot `json:"deviceInfo,omitempty"`
}

// Filter narrows a scan listing. Zero values mean "no constraint".
type Filter struct {
	Results   []Result
	ProductID string
	From      time.Time
	To        time.Time
	Limit     int
}

// Matches reports whether the event satisfies every set constraint.
func (f Filter) Matches(e Event) bool {
	if len(f.Results) > 0 {
		found := false
		for _, r := range f.Results {
			if e.Result == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ProductID != "" && e.ProductID != f.ProductID {
		return false
	}
	if !f.From.IsZero() && e.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.OccurredAt.After(f.To) {
		return false
	}
	return true
}
