package scan

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/geo"
	"veriscan/pkg/requestcontext"
)

// RecordInput is the ingestion gate payload for one verification attempt.
type RecordInput struct {
	ProductID    string
	Result       Result
	Latitude     *float64
	Longitude    *float64
	HumanAddress string
	Ledger       LedgerSnapshot
	Device       *DeviceSnapshot
}

// Service is the ingestion gate: it validates scan payloads and appends
// immutable events. Appends never gate verification; callers that treat the
// log as best-effort log failures and move on.
type Service struct {
	store     Store
	publisher *Publisher
	logger    *slog.Logger
	listCap   int
}

// NewService constructs the ingestion gate. publisher may be nil when no
// broker is configured.
func NewService(store Store, publisher *Publisher, logger *slog.Logger, listCap int) *Service {
	if listCap <= 0 {
		listCap = 1000
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		listCap:   listCap,
	}
}

// Record validates the input and appends one immutable event with a
// server-assigned id and timestamp. A canceled context means the originating
// evaluation never completed, so nothing is appended.
func (s *Service) Record(ctx context.Context, in RecordInput) (Event, error) {
	location, err := validateInput(in)
	if err != nil {
		return Event{}, err
	}

	if err := ctx.Err(); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "request canceled before scan was recorded")
	}

	event := Event{
		ID:           uuid.New(),
		ProductID:    in.ProductID,
		Result:       in.Result,
		OccurredAt:   requestcontext.Now(ctx).UTC(),
		Location:     location,
		HumanAddress: in.HumanAddress,
		Ledger:       in.Ledger,
		Device:       in.Device,
	}

	if err := s.store.Append(ctx, event); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record scan")
	}

	if s.publisher != nil {
		// Fire-and-forget; a broker outage must not slow ingestion.
		s.publisher.Publish(context.WithoutCancel(ctx), event)
	}

	return event, nil
}

// List returns scan events for the dashboard, newest first, with the limit
// capped server-side.
func (s *Service) List(ctx context.Context, filter Filter) ([]Event, error) {
	if filter.Limit <= 0 || filter.Limit > s.listCap {
		filter.Limit = s.listCap
	}
	events, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch scans")
	}
	return events, nil
}

func validateInput(in RecordInput) (*geo.Point, error) {
	if in.ProductID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "productId is required")
	}
	if !in.Result.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "scanResult must be one of NOT_FOUND, AUTHENTIC, ALREADY_SOLD")
	}

	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "latitude and longitude must be provided together")
	}
	if in.Latitude == nil {
		return nil, nil
	}

	p := geo.Point{Lat: *in.Latitude, Lon: *in.Longitude}
	if !p.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "coordinates out of range")
	}
	return &p, nil
}
