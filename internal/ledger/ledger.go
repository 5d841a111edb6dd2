// Package ledger provides read-only access to the external product trust
// ledger. The ledger is an oracle of truth: this package never writes to it,
// and callers must treat every answer as a point-in-time read.
package ledger

import (
	"context"
	"strings"
	"time"
)

// Status is the raw on-chain product lifecycle state.
type Status uint8

const (
	StatusAvailable Status = 0
	StatusSold      Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusSold:
		return "Sold"
	default:
		return "Unknown"
	}
}

// ProductFact is the ledger's record of a product at creation time.
type ProductFact struct {
	ProductID          string
	Exists             bool
	Manufacturer       string
	ManufactureDate    time.Time
	BatchNumber        string
	Category           string
	Status             Status
	ContentFingerprint string // 0x-prefixed keccak hex, empty when absent
}

// SaleFact is the ledger's record of a completed sale. Present only for
// products whose status is Sold.
type SaleFact struct {
	ProductID string
	WasSold   bool
	Retailer  string
	SaleDate  time.Time
	Location  string
}

// Reader is the read-only ledger interface consumed by the evaluator.
// Implementations must honor ctx deadlines; every method may block on network
// I/O to the external chain.
type Reader interface {
	// Product returns the product fact; Exists=false means the ledger has
	// no record (not an error).
	Product(ctx context.Context, productID string) (ProductFact, error)

	// ProductFingerprint returns the content fingerprint recorded at
	// creation, empty if none was stored.
	ProductFingerprint(ctx context.Context, productID string) (string, error)

	// SaleInfo returns the sale record for a sold product.
	SaleInfo(ctx context.Context, productID string) (SaleFact, error)

	// AuthorizedManufacturer reports trust-set membership for an address.
	AuthorizedManufacturer(ctx context.Context, address string) (bool, error)

	// AuthorizedRetailer reports trust-set membership for an address.
	AuthorizedRetailer(ctx context.Context, address string) (bool, error)

	// Owner returns the trust-set owner address.
	Owner(ctx context.Context) (string, error)
}

// EqualAddress compares two ledger addresses. Addresses are hex identifiers
// and are not case-sensitive.
func EqualAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
