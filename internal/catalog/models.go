// Package catalog is the off-chain product metadata registry. It stores what
// manufacturers registered, not what the ledger attests; verification never
// consults it.
package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "veriscan/pkg/domain-errors"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Product is one registered catalog entry. Manufacturer addresses are
// normalized to lowercase at creation time.
type Product struct {
	ID           uuid.UUID `json:"id"`
	UID          string    `json:"uid"`
	Manufacturer string    `json:"manufacturer"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateInput carries a registration request before normalization.
type CreateInput struct {
	UID          string `json:"uid"`
	Manufacturer string `json:"manufacturer"`
	Details      string `json:"details"`
}

// Normalize trims every field and lowercases the manufacturer address.
func (in CreateInput) Normalize() CreateInput {
	return CreateInput{
		UID:          strings.TrimSpace(in.UID),
		Manufacturer: strings.ToLower(strings.TrimSpace(in.Manufacturer)),
		Details:      strings.TrimSpace(in.Details),
	}
}

// Validate checks the normalized input.
func (in CreateInput) Validate() error {
	if in.UID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "uid is required")
	}
	if !addressPattern.MatchString(in.Manufacturer) {
		return dErrors.New(dErrors.CodeBadRequest, "manufacturer must be a 0x-prefixed 40-hex-digit address")
	}
	if in.Details == "" {
		return dErrors.New(dErrors.CodeBadRequest, "details is required")
	}
	return nil
}
