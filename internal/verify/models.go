// Package verify implements the trust verification evaluator: it composes
// ledger facts into a pass/fail verdict with human-readable reasons.
package verify

import (
	"time"

	"veriscan/internal/ledger"
)

// Classification is the coarse bucket derived from raw ledger state only. It
// is independent of trust: a sold product with an untrusted retailer is still
// ALREADY_SOLD.
type Classification string

const (
	ClassificationNotFound    Classification = "NOT_FOUND"
	ClassificationAuthentic   Classification = "AUTHENTIC"
	ClassificationAlreadySold Classification = "ALREADY_SOLD"
)

// Reason strings surfaced on the verdict. The dashboard matches on these, so
// they are part of the API.
const (
	ReasonNotFound              = "Product not found on-chain"
	ReasonUntrustedManufacturer = "Manufacturer not in trusted list"
	ReasonFingerprintMismatch   = "Details do not match on-chain fingerprint"
	ReasonNoDetails             = "No details provided to verify fingerprint"
	ReasonMissingSaleRecord     = "Marked sold but no sale record found"
	ReasonUntrustedRetailer     = "Sale retailer not authorized"

	ReasonManufacturerCheckFailed = "Failed to check manufacturer authorization"
	ReasonFingerprintFetchFailed  = "Failed to fetch product fingerprint"
	ReasonSaleInfoFetchFailed     = "Failed to fetch sale info"
	ReasonRetailerCheckFailed     = "Failed to check retailer authorization"
)

// SaleAssessment is the evaluator's view of a sale record.
type SaleAssessment struct {
	WasSold         bool      `json:"wasSold"`
	Retailer        string    `json:"retailer"`
	RetailerTrusted bool      `json:"retailerTrusted"`
	SaleDate        time.Time `json:"saleDate"`
	Location        string    `json:"location,omitempty"`
}

// Verdict is the evaluator's conjunctive judgment. It is ephemeral: computed
// per request, returned to the caller, never persisted (only the scan event
// derived from it is).
type Verdict struct {
	ProductID    string        `json:"productId"`
	Exists       bool          `json:"exists"`
	Status       ledger.Status `json:"-"`
	StatusLabel  string        `json:"status"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	BatchNumber  string        `json:"batchNumber,omitempty"`

	IsTrustedManufacturer bool `json:"isTrustedManufacturer"`

	DetailsProvided bool `json:"detailsProvided"`
	// DetailsMatch is nil when no details were supplied: absence of
	// evidence is distinct from a failed check.
	DetailsMatch       *bool  `json:"detailsMatch"`
	OnchainFingerprint string `json:"onchainHash,omitempty"`
	LocalFingerprint   string `json:"localHash,omitempty"`

	Sale *SaleAssessment `json:"sale"`

	Classification Classification `json:"classification"`
	OK             bool           `json:"verdict"`
	Reasons        []string       `json:"reasons"`
}
