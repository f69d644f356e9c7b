package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/pricing"
)

// PricingRepository MySQL実装のPricingRepository
type PricingRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPricingRepository 新しいPricingRepositoryを作成
func NewPricingRepository(db *DB) *PricingRepository {
	return &PricingRepository{
		db:     db,
		tracer: otel.Tracer("pricing-repository"),
	}
}

// FindActive 販売中の価格を取得
func (r *PricingRepository) FindActive(ctx context.Context, network, dataAmount string) (*pricing.PackagePrice, error) {
	ctx, span := r.tracer.Start(ctx, "PricingRepository.FindActive")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.network", network),
		attribute.String("db.data_amount", dataAmount),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "data_package_pricing"),
	)

	query := `
		SELECT network, data_amount, price
		FROM data_package_pricing
		WHERE network = ? AND data_amount = ? AND is_active = 1
		LIMIT 1
	`

	var (
		dbNetwork, dbDataAmount string
		price                   decimal.Decimal
	)
	err := r.db.conn(ctx).QueryRowContext(ctx, query, network, dataAmount).Scan(&dbNetwork, &dbDataAmount, &price)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "price not found")
		return nil, pricing.ErrPriceNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed to find package price: %w", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "price found")
	return pricing.NewPackagePrice(dbNetwork, dbDataAmount, price, true), nil
}
