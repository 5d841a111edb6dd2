package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/platform/sentinel"
	"veriscan/pkg/requestcontext"
)

// Service validates and normalizes catalog registrations before persisting
// them. It holds no business rules beyond input hygiene.
type Service struct {
	store    Store
	logger   *slog.Logger
	listCap  int
	listSize int
}

// NewService creates a catalog Service. listSize is the default page size
// for listings, listCap the hard maximum.
func NewService(store Store, logger *slog.Logger, listSize, listCap int) *Service {
	if listSize <= 0 {
		listSize = 100
	}
	if listCap <= 0 {
		listCap = 1000
	}
	return &Service{store: store, logger: logger, listSize: listSize, listCap: listCap}
}

// Create registers one product. A duplicate uid returns CodeConflict.
func (s *Service) Create(ctx context.Context, in CreateInput) (Product, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	product := Product{
		ID:           uuid.New(),
		UID:          in.UID,
		Manufacturer: in.Manufacturer,
		Details:      in.Details,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Create(ctx, product); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Product{}, dErrors.New(dErrors.CodeConflict, "product uid already registered")
		}
		return Product{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register product")
	}

	s.logger.InfoContext(ctx, "product registered",
		"request_id", requestcontext.RequestID(ctx),
		"uid", product.UID,
		"manufacturer", product.Manufacturer,
	)
	return product, nil
}

// ByManufacturer lists a manufacturer's products, newest first. The address
// is normalized the same way Create normalizes it.
func (s *Service) ByManufacturer(ctx context.Context, address string, limit int) ([]Product, error) {
	in := CreateInput{Manufacturer: address}.Normalize()
	if !addressPattern.MatchString(in.Manufacturer) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "manufacturer must be a 0x-prefixed 40-hex-digit address")
	}
	if limit <= 0 {
		limit = s.listSize
	}
	if limit > s.listCap {
		limit = s.listCap
	}

	products, err := s.store.ByManufacturer(ctx, in.Manufacturer, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list products")
	}
	return products, nil
}
