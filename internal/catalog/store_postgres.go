package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veriscan/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore persists catalog entries in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store. The schema is
// owned by migrations; see migrations/001_catalog.sql.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, product Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_products (id, uid, manufacturer, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		product.ID, product.UID, product.Manufacturer, product.Details, product.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create catalog product: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByUID(ctx context.Context, uid string) (Product, error) {
	var product Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, uid, manufacturer, details, created_at
		FROM catalog_products
		WHERE uid = $1`,
		uid,
	).Scan(&product.ID, &product.UID, &product.Manufacturer, &product.Details, &product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, sentinel.ErrNotFound
		}
		return Product{}, fmt.Errorf("find catalog product: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) ByManufacturer(ctx context.Context, address string, limit int) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, manufacturer, details, created_at
		FROM catalog_products
		WHERE manufacturer = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		address, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.UID, &p.Manufacturer, &p.Details, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog products: %w", err)
	}
	return products, nil
}

var _ Store = (*PostgresStore)(nil)
