package fraud

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"veriscan/internal/platform/config"
	"veriscan/internal/scan"
	dErrors "veriscan/pkg/domain-errors"
	"veriscan/pkg/geo"
)

// Detector runs the fraud-pattern aggregations over the scan event log.
type Detector struct {
	store  scan.Store
	cfg    config.FraudConfig
	logger *slog.Logger
}

// NewDetector creates a Detector with the given defaults. Per-call threshold
// overrides are clamped to sane values, never disabled.
func NewDetector(store scan.Store, cfg config.FraudConfig, logger *slog.Logger) *Detector {
	return &Detector{store: store, cfg: cfg, logger: logger}
}

// SuspiciousLocations groups located NOT_FOUND scans by cell and reports
// every cell at or above minScans, highest count first. minScans <= 0 uses
// the configured default. Events without a location never contribute.
func (d *Detector) SuspiciousLocations(ctx context.Context, minScans int) ([]LocationReport, error) {
	if minScans <= 0 {
		minScans = d.cfg.SuspiciousLocationMinScans
	}

	events, err := d.store.ListByResult(ctx, scan.ResultNotFound)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate not-found scans")
	}

	type bucket struct {
		cell     geo.Cell
		count    int
		products map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, e := range events {
		if e.Location == nil {
			continue
		}
		cell := geo.CellOf(*e.Location, d.cfg.LocationPrecision)
		key := cell.Key()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{cell: cell, products: make(map[string]struct{})}
			buckets[key] = b
		}
		b.count++
		b.products[e.ProductID] = struct{}{}
	}

	reports := make([]LocationReport, 0, len(buckets))
	for key, b := range buckets {
		if b.count < minScans {
			continue
		}
		ids := make([]string, 0, len(b.products))
		for id := range b.products {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		reports = append(reports, LocationReport{
			Cell:       key,
			Latitude:   b.cell.Lat,
			Longitude:  b.cell.Lon,
			Count:      b.count,
			ProductIDs: ids,
		})
	}
	sortStable(reports, func(a, b LocationReport) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Cell < b.Cell
	})
	return reports, nil
}

// DuplicateSoldScans reports products scanned as ALREADY_SOLD at least
// minScans times, highest count first.
func (d *Detector) DuplicateSoldScans(ctx context.Context, minScans int) ([]DuplicateProductReport, error) {
	if minScans <= 0 {
		minScans = d.cfg.DuplicateSoldMinScans
	}

	events, err := d.store.ListByResult(ctx, scan.ResultAlreadySold)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate already-sold scans")
	}

	type bucket struct {
		sightings []Sighting
		cells     map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	for _, e := range events {
		b, ok := buckets[e.ProductID]
		if !ok {
			b = &bucket{cells: make(map[string]struct{})}
			buckets[e.ProductID] = b
		}
		b.sightings = append(b.sightings, Sighting{
			Location:     e.Location,
			HumanAddress: e.HumanAddress,
			OccurredAt:   e.OccurredAt,
		})
		if e.Location != nil {
			b.cells[geo.CellOf(*e.Location, d.cfg.LocationPrecision).Key()] = struct{}{}
		}
	}

	reports := make([]DuplicateProductReport, 0, len(buckets))
	for productID, b := range buckets {
		if len(b.sightings) < minScans {
			continue
		}
		sortStable(b.sightings, func(a, b Sighting) bool {
			return a.OccurredAt.Before(b.OccurredAt)
		})
		cells := make([]string, 0, len(b.cells))
		for c := range b.cells {
			cells = append(cells, c)
		}
		sort.Strings(cells)
		reports = append(reports, DuplicateProductReport{
			ProductID: productID,
			Count:     len(b.sightings),
			Locations: b.sightings,
			Cells:     cells,
		})
	}
	sortStable(reports, func(a, b DuplicateProductReport) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ProductID < b.ProductID
	})
	return reports, nil
}

// SuspiciousProducts rolls both signals up per product: a product is
// suspicious when its ALREADY_SOLD count reaches soldMin or its NOT_FOUND
// count reaches notFoundMin.
func (d *Detector) SuspiciousProducts(ctx context.Context, soldMin, notFoundMin int) ([]SuspiciousProductReport, error) {
	if soldMin <= 0 {
		soldMin = d.cfg.DuplicateSoldMinScans
	}
	if notFoundMin <= 0 {
		notFoundMin = d.cfg.SuspiciousLocationMinScans
	}

	events, err := d.store.ListByResult(ctx, scan.ResultAlreadySold, scan.ResultNotFound)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate suspicious products")
	}

	type bucket struct {
		sold, notFound int
		cells          map[string]struct{}
		report         SuspiciousProductReport
	}
	buckets := make(map[string]*bucket)
	for _, e := range events {
		b, ok := buckets[e.ProductID]
		if !ok {
			b = &bucket{cells: make(map[string]struct{})}
			b.report.ProductID = e.ProductID
			b.report.FirstSeen = e.OccurredAt
			b.report.LastSeen = e.OccurredAt
			buckets[e.ProductID] = b
		}
		switch e.Result {
		case scan.ResultAlreadySold:
			b.sold++
		case scan.ResultNotFound:
			b.notFound++
		}
		if e.Location != nil {
			b.cells[geo.CellOf(*e.Location, d.cfg.LocationPrecision).Key()] = struct{}{}
		}
		if e.OccurredAt.Before(b.report.FirstSeen) {
			b.report.FirstSeen = e.OccurredAt
		}
		if e.OccurredAt.After(b.report.LastSeen) {
			b.report.LastSeen = e.OccurredAt
		}
	}

	reports := make([]SuspiciousProductReport, 0, len(buckets))
	for _, b := range buckets {
		if b.sold < soldMin && b.notFound < notFoundMin {
			continue
		}
		b.report.AlreadySoldCount = b.sold
		b.report.NotFoundCount = b.notFound
		b.report.DistinctCells = len(b.cells)
		reports = append(reports, b.report)
	}
	sortStable(reports, func(a, b SuspiciousProductReport) bool {
		ta, tb := a.AlreadySoldCount+a.NotFoundCount, b.AlreadySoldCount+b.NotFoundCount
		if ta != tb {
			return ta > tb
		}
		return a.ProductID < b.ProductID
	})
	return reports, nil
}

// Stats returns the scan volume breakdown by result.
func (d *Detector) Stats(ctx context.Context) (Statistics, error) {
	counts, err := d.store.CountByResult(ctx)
	if err != nil {
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count scans")
	}
	stats := Statistics{
		NotFound:    counts[scan.ResultNotFound],
		Authentic:   counts[scan.ResultAuthentic],
		AlreadySold: counts[scan.ResultAlreadySold],
		ByResult:    counts,
	}
	stats.Total = stats.NotFound + stats.Authentic + stats.AlreadySold
	return stats, nil
}

// Nearby returns located events within radiusMeters of center, nearest
// first. The radius is clamped to the configured maximum and page size.
func (d *Detector) Nearby(ctx context.Context, center geo.Point, radiusMeters float64, limit int) ([]scan.Event, error) {
	if !center.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "latitude and longitude out of range")
	}
	if radiusMeters <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "radius must be positive")
	}
	if radiusMeters > d.cfg.NearbyMaxRadiusMeters {
		radiusMeters = d.cfg.NearbyMaxRadiusMeters
	}
	if limit <= 0 || limit > d.cfg.NearbyPageSize {
		limit = d.cfg.NearbyPageSize
	}

	events, err := d.store.Near(ctx, center, radiusMeters, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to query nearby scans")
	}
	return events, nil
}

// Analytics runs every aggregation concurrently and bundles the results.
// Each aggregation is an independent read; one failure fails the whole
// report rather than serving a partial dashboard.
func (d *Detector) Analytics(ctx context.Context) (AnalyticsReport, error) {
	var report AnalyticsReport
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := d.Stats(gctx)
		if err != nil {
			return err
		}
		report.Statistics = stats
		return nil
	})
	g.Go(func() error {
		locations, err := d.SuspiciousLocations(gctx, 0)
		if err != nil {
			return err
		}
		report.SuspiciousLocations = locations
		return nil
	})
	g.Go(func() error {
		duplicates, err := d.DuplicateSoldScans(gctx, 0)
		if err != nil {
			return err
		}
		report.DuplicateSold = duplicates
		return nil
	})
	g.Go(func() error {
		products, err := d.SuspiciousProducts(gctx, 0, 0)
		if err != nil {
			return err
		}
		report.SuspiciousProducts = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return AnalyticsReport{}, err
	}
	return report, nil
}

func sortStable[T any](s []T, less func(a, b T) bool) {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
}
