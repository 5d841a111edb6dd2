// Package fraud aggregates scan events into fraud-pattern reports. The
// detector only reads the event log; it never writes, so repeated runs over
// the same events always produce the same reports.
package fraud

import (
	"time"

	"veriscan/internal/scan"
	"veriscan/pkg/geo"
)

// LocationReport flags a geographic cell with a concentration of NOT_FOUND
// scans, the signature of counterfeit batches circulating in one area.
type LocationReport struct {
	Cell      string  `json:"cell"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Count      int      `json:"count"`
	ProductIDs []string `json:"productIds"`
}

// Sighting is one observed scan of a flagged product: where and when it was
// seen. Unlocated scans still carry their timestamp.
type Sighting struct {
	Location     *geo.Point `json:"location,omitempty"`
	HumanAddress string     `json:"address,omitempty"`
	OccurredAt   time.Time  `json:"occurredAt"`
}

// DuplicateProductReport flags a product scanned as ALREADY_SOLD repeatedly,
// the signature of a cloned identifier. Locations holds one entry per scan
// so a dashboard can show the code circulating across places over time;
// Cells is the deduplicated set of coordinate cells those scans fell into.
type DuplicateProductReport struct {
	ProductID string     `json:"productId"`
	Count     int        `json:"count"`
	Locations []Sighting `json:"locations"`
	Cells     []string   `json:"cells"`
}

// SuspiciousProductReport is the per-product rollup across both signals.
type SuspiciousProductReport struct {
	ProductID        string    `json:"productId"`
	AlreadySoldCount int       `json:"alreadySoldCount"`
	NotFoundCount    int       `json:"notFoundCount"`
	DistinctCells    int       `json:"distinctLocations"`
	FirstSeen        time.Time `json:"firstSeen"`
	LastSeen         time.Time `json:"lastSeen"`
}

// Statistics is the scan volume breakdown by result.
type Statistics struct {
	Total       int64                 `json:"total"`
	NotFound    int64                 `json:"notFound"`
	Authentic   int64                 `json:"authentic"`
	AlreadySold int64                 `json:"alreadySold"`
	ByResult    map[scan.Result]int64 `json:"-"`
}

// AnalyticsReport bundles every aggregation into a single dashboard payload.
type AnalyticsReport struct {
	Statistics          Statistics                `json:"statistics"`
	SuspiciousLocations []LocationReport          `json:"suspiciousLocations"`
	DuplicateSold       []DuplicateProductReport  `json:"duplicateSoldProducts"`
	SuspiciousProducts  []SuspiciousProductReport `json:"suspiciousProducts"`
}
