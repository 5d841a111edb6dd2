package verify

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veriscan/internal/ledger"
	"veriscan/internal/scan"
	vmetrics "veriscan/internal/verify/metrics"
	dErrors "veriscan/pkg/domain-errors"
)

const defaultLookupTimeout = 5 * time.Second

// Recorder is the ingestion gate seam. Recording is best-effort: verification
// is never gated on it.
type Recorder interface {
	Record(ctx context.Context, in scan.RecordInput) (scan.Event, error)
}

// Request carries one verification attempt. Details may be empty; the
// optional location/device fields are only passed through to the scan event.
type Request struct {
	ProductID string
	Details   string

	Latitude  *float64
	Longitude *float64
	Address   string
	Device    *scan.DeviceSnapshot
}

// Result pairs the verdict with the id of the scan event it produced, when
// one was recorded.
type Result struct {
	Verdict     Verdict
	ScanEventID string
}

// Evaluator turns ledger facts into verdicts. It holds no mutable state;
// concurrent evaluations are independent.
type Evaluator struct {
	ledger        ledger.Reader
	recorder      Recorder
	logger        *slog.Logger
	metrics       *vmetrics.Metrics
	lookupTimeout time.Duration
	tracer        trace.Tracer
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithMetrics sets the metrics collector.
func WithMetrics(m *vmetrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithLookupTimeout bounds each individual ledger read.
func WithLookupTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.lookupTimeout = d
		}
	}
}

// NewEvaluator constructs the evaluator. recorder may be nil (verdicts are
// then computed without scan logging, e.g. in tests).
func NewEvaluator(reader ledger.Reader, recorder Recorder, logger *slog.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		ledger:        reader,
		recorder:      recorder,
		logger:        logger,
		lookupTimeout: defaultLookupTimeout,
		tracer:        otel.Tracer("veriscan/verify"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the ordered verification checks and returns a complete
// verdict. Non-terminal failures accumulate into reasons; only a missing
// product short-circuits, and only an unreachable primary product read fails
// the call. Every uncertain lookup is treated as a failed check (fail
// closed), never as an implicit pass.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	if req.ProductID == "" {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "productId is required")
	}

	ctx, span := e.tracer.Start(ctx, "verify.evaluate",
		trace.WithAttributes(attribute.String("product.id", req.ProductID)))
	defer span.End()

	start := time.Now()
	verdict, err := e.evaluate(ctx, req)
	e.metrics.ObserveEvaluateLatency(time.Since(start))
	if err != nil {
		return Result{}, err
	}

	span.SetAttributes(
		attribute.String("verdict.classification", string(verdict.Classification)),
		attribute.Bool("verdict.ok", verdict.OK),
	)
	e.metrics.IncrementVerdict(string(verdict.Classification), verdict.OK)

	eventID := e.recordScan(ctx, req, verdict)
	return Result{Verdict: verdict, ScanEventID: eventID}, nil
}

func (e *Evaluator) evaluate(ctx context.Context, req Request) (Verdict, error) {
	// Step 1: existence. This is the only read whose failure aborts the
	// evaluation; without it no honest verdict is possible.
	product, err := e.fetchProduct(ctx, req.ProductID)
	if err != nil {
		return Verdict{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable")
	}

	verdict := Verdict{
		ProductID:    req.ProductID,
		Exists:       product.Exists,
		Status:       product.Status,
		Manufacturer: product.Manufacturer,
		BatchNumber:  product.BatchNumber,
		Sale:         nil,
		Reasons:      []string{},
	}

	if !product.Exists {
		// The single fast-fail path: no further lookups.
		verdict.Classification = ClassificationNotFound
		verdict.OK = false
		verdict.Reasons = append(verdict.Reasons, ReasonNotFound)
		return verdict, nil
	}
	verdict.StatusLabel = product.Status.String()

	// Step 2: manufacturer trust. Failures accumulate; evaluation continues
	// so the caller gets full diagnostics.
	verdict.IsTrustedManufacturer = e.checkManufacturer(ctx, &verdict, product.Manufacturer)

	// Step 3: content integrity.
	e.checkIntegrity(ctx, &verdict, product, req.Details)

	// Step 4: sale record, only for sold products.
	if product.Status == ledger.StatusSold {
		e.checkSale(ctx, &verdict, req.ProductID)
	}

	// Step 5: classification reflects raw ledger state only.
	if product.Status == ledger.StatusSold {
		verdict.Classification = ClassificationAlreadySold
	} else {
		verdict.Classification = ClassificationAuthentic
	}

	// Step 6: the verdict is a conjunction over every independent check.
	detailsOK := true
	if verdict.DetailsProvided {
		detailsOK = verdict.DetailsMatch != nil && *verdict.DetailsMatch
	}
	saleOK := product.Status == ledger.StatusAvailable ||
		(verdict.Sale != nil && verdict.Sale.WasSold && verdict.Sale.RetailerTrusted)
	verdict.OK = verdict.IsTrustedManufacturer && detailsOK && saleOK

	return verdict, nil
}

func (e *Evaluator) fetchProduct(ctx context.Context, productID string) (ledger.ProductFact, error) {
	ctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	start := time.Now()
	product, err := e.ledger.Product(ctx, productID)
	e.metrics.ObserveLookup("product", time.Since(start))
	if err != nil {
		e.metrics.IncrementLookupFailure("product")
	}
	return product, err
}

func (e *Evaluator) checkManufacturer(ctx context.Context, verdict *Verdict, manufacturer string) bool {
	ctx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	start := time.Now()
	trusted, err := e.ledger.AuthorizedManufacturer(ctx, manufacturer)
	e.metrics.ObserveLookup("authorized_manufacturer", time.Since(start))
	if err != nil {
		e.metrics.IncrementLookupFailure("authorized_manufacturer")
		e.logger.WarnContext(ctx, "manufacturer authorization lookup failed",
			"product_id", verdict.ProductID,
			"error", err,
		)
		verdict.Reasons = append(verdict.Reasons, ReasonManufacturerCheckFailed)
		trusted = false
	}
	if !trusted && err == nil {
		verdict.Reasons = append(verdict.Reasons, ReasonUntrustedManufacturer)
	}
	return trusted
}

func (e *Evaluator) checkIntegrity(ctx context.Context, verdict *Verdict, product ledger.ProductFact, details string) {
	verdict.DetailsProvided = details != ""
	if !verdict.DetailsProvided {
		verdict.Reasons = append(verdict.Reasons, ReasonNoDetails)
		return
	}

	onchain := product.ContentFingerprint
	if onchain == "" {
		// The combined product read did not carry the fingerprint; fetch
		// it explicitly.
		lookupCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
		defer cancel()

		start := time.Now()
		fp, err := e.ledger.ProductFingerprint(lookupCtx, product.ProductID)
		e.metrics.ObserveLookup("product_fingerprint", time.Since(start))
		if err != nil {
			e.metrics.IncrementLookupFailure("product_fingerprint")
			e.logger.WarnContext(ctx, "fingerprint lookup failed",
				"product_id", product.ProductID,
				"error", err,
			)
			verdict.Reasons = append(verdict.Reasons, ReasonFingerprintFetchFailed)
			matched := false
			verdict.DetailsMatch = &matched
			return
		}
		onchain = fp
	}

	verdict.OnchainFingerprint = onchain
	verdict.LocalFingerprint = Fingerprint(details)
	matched := FingerprintsEqual(verdict.LocalFingerprint, onchain)
	verdict.DetailsMatch = &matched
	if !matched {
		verdict.Reasons = append(verdict.Reasons, ReasonFingerprintMismatch)
	}
}

func (e *Evaluator) checkSale(ctx context.Context, verdict *Verdict, productID string) {
	saleCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	start := time.Now()
	sale, err := e.ledger.SaleInfo(saleCtx, productID)
	e.metrics.ObserveLookup("sale_info", time.Since(start))
	if err != nil {
		e.metrics.IncrementLookupFailure("sale_info")
		e.logger.WarnContext(ctx, "sale info lookup failed",
			"product_id", productID,
			"error", err,
		)
		verdict.Reasons = append(verdict.Reasons, ReasonSaleInfoFetchFailed)
		return
	}

	assessment := &SaleAssessment{
		WasSold:  sale.WasSold,
		Retailer: sale.Retailer,
		SaleDate: sale.SaleDate,
		Location: sale.Location,
	}
	verdict.Sale = assessment

	if !sale.WasSold {
		// Status says Sold but no sale record exists; an inconsistent
		// ledger state. Retailer trust stays false.
		verdict.Reasons = append(verdict.Reasons, ReasonMissingSaleRecord)
		return
	}

	retailCtx, cancel := context.WithTimeout(ctx, e.lookupTimeout)
	defer cancel()

	start = time.Now()
	trusted, err := e.ledger.AuthorizedRetailer(retailCtx, sale.Retailer)
	e.metrics.ObserveLookup("authorized_retailer", time.Since(start))
	if err != nil {
		e.metrics.IncrementLookupFailure("authorized_retailer")
		e.logger.WarnContext(ctx, "retailer authorization lookup failed",
			"product_id", productID,
			"error", err,
		)
		verdict.Reasons = append(verdict.Reasons, ReasonRetailerCheckFailed)
		return
	}

	assessment.RetailerTrusted = trusted
	if !trusted {
		verdict.Reasons = append(verdict.Reasons, ReasonUntrustedRetailer)
	}
}

// recordScan appends one scan event tagged with the verdict classification.
// Best-effort: failures are logged, never surfaced. Nothing is appended when
// the caller has already gone away.
func (e *Evaluator) recordScan(ctx context.Context, req Request, verdict Verdict) string {
	if e.recorder == nil {
		return ""
	}
	if err := ctx.Err(); err != nil {
		return ""
	}

	event, err := e.recorder.Record(ctx, scan.RecordInput{
		ProductID:    req.ProductID,
		Result:       scan.Result(verdict.Classification),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		HumanAddress: req.Address,
		Ledger: scan.LedgerSnapshot{
			Manufacturer: verdict.Manufacturer,
			BatchNumber:  verdict.BatchNumber,
			Status:       verdict.StatusLabel,
		},
		Device: req.Device,
	})
	if err != nil {
		e.logger.WarnContext(ctx, "failed to record scan event",
			"product_id", req.ProductID,
			"error", err,
		)
		return ""
	}
	return event.ID.String()
}
