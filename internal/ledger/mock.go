package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrLedgerUnavailable simulates an unreachable chain in tests and dev mode.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// MockReader serves fixture facts with a configurable latency to mimic
// real-world chain reads. It is safe for concurrent use.
type MockReader struct {
	Latency time.Duration

	mu            sync.RWMutex
	products      map[string]ProductFact
	sales         map[string]SaleFact
	manufacturers map[string]bool
	retailers     map[string]bool
	owner         string

	// FailMethods lists method names whose calls return
	// ErrLedgerUnavailable, for exercising fail-closed paths.
	FailMethods map[string]bool
}

// NewMockReader creates an empty fixture reader.
func NewMockReader() *MockReader {
	return &MockReader{
		products:      make(map[string]ProductFact),
		sales:         make(map[string]SaleFact),
		manufacturers: make(map[string]bool),
		retailers:     make(map[string]bool),
		FailMethods:   make(map[string]bool),
	}
}

// SeedProduct registers a product fact (and optional sale fact).
func (m *MockReader) SeedProduct(fact ProductFact, sale *SaleFact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[fact.ProductID] = fact
	if sale != nil {
		m.sales[fact.ProductID] = *sale
	}
}

// TrustManufacturer adds an address to the manufacturer allow-list.
func (m *MockReader) TrustManufacturer(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manufacturers[strings.ToLower(address)] = true
}

// TrustRetailer adds an address to the retailer allow-list.
func (m *MockReader) TrustRetailer(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retailers[strings.ToLower(address)] = true
}

// SetOwner sets the trust-set owner address.
func (m *MockReader) SetOwner(address string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owner = address
}

func (m *MockReader) wait(ctx context.Context, method string) error {
	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.RLock()
	fail := m.FailMethods[method]
	m.mu.RUnlock()
	if fail {
		return ErrLedgerUnavailable
	}
	return nil
}

func (m *MockReader) Product(ctx context.Context, productID string) (ProductFact, error) {
	if err := m.wait(ctx, "Product"); err != nil {
		return ProductFact{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fact, ok := m.products[productID]
	if !ok {
		return ProductFact{ProductID: productID, Exists: false}, nil
	}
	return fact, nil
}

func (m *MockReader) ProductFingerprint(ctx context.Context, productID string) (string, error) {
	if err := m.wait(ctx, "ProductFingerprint"); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.products[productID].ContentFingerprint, nil
}

func (m *MockReader) SaleInfo(ctx context.Context, productID string) (SaleFact, error) {
	if err := m.wait(ctx, "SaleInfo"); err != nil {
		return SaleFact{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sale, ok := m.sales[productID]
	if !ok {
		return SaleFact{ProductID: productID, WasSold: false}, nil
	}
	return sale, nil
}

func (m *MockReader) AuthorizedManufacturer(ctx context.Context, address string) (bool, error) {
	if err := m.wait(ctx, "AuthorizedManufacturer"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.manufacturers[strings.ToLower(strings.TrimSpace(address))], nil
}

func (m *MockReader) AuthorizedRetailer(ctx context.Context, address string) (bool, error) {
	if err := m.wait(ctx, "AuthorizedRetailer"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retailers[strings.ToLower(strings.TrimSpace(address))], nil
}

func (m *MockReader) Owner(ctx context.Context) (string, error) {
	if err := m.wait(ctx, "Owner"); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.owner, nil
}

var _ Reader = (*MockReader)(nil)
