package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/transaction"
)

// TransactionRepository MySQL実装のTransactionRepository
type TransactionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewTransactionRepository 新しいTransactionRepositoryを作成
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		tracer: otel.Tracer("transaction-repository"),
	}
}

// Upsert トランザクションを保存。既存レコードのうち今回NULLの項目は保持する
func (r *TransactionRepository) Upsert(ctx context.Context, t *transaction.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.reference", t.Reference()),
		attribute.String("db.status", t.Status().String()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		INSERT INTO transactions (
			reference, payment, customer, order_details, provider_response,
			error_detail, status, balance_before, balance_after, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			payment = COALESCE(VALUES(payment), payment),
			customer = COALESCE(VALUES(customer), customer),
			order_details = COALESCE(VALUES(order_details), order_details),
			provider_response = COALESCE(VALUES(provider_response), provider_response),
			error_detail = VALUES(error_detail),
			status = VALUES(status),
			balance_before = COALESCE(VALUES(balance_before), balance_before),
			balance_after = COALESCE(VALUES(balance_after), balance_after),
			updated_at = VALUES(updated_at)
	`

	paymentJSON, err := marshalSection(t.Payment())
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to marshal payment: %w", err))
	}
	customerJSON, err := marshalSection(t.Customer())
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to marshal customer: %w", err))
	}
	orderJSON, err := marshalSection(t.Order())
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to marshal order details: %w", err))
	}
	providerJSON, err := marshalSection(t.ProviderResponse())
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to marshal provider response: %w", err))
	}

	var errorDetail interface{}
	if detail := t.ErrorDetail(); detail != "" {
		errorDetail = detail
	}

	_, err = r.db.conn(ctx).ExecContext(ctx, query,
		t.Reference(),
		paymentJSON,
		customerJSON,
		orderJSON,
		providerJSON,
		errorDetail,
		t.Status().String(),
		nullDecimal(t.BalanceBefore()),
		nullDecimal(t.BalanceAfter()),
		t.CreatedAt(),
		t.UpdatedAt(),
	)
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to upsert transaction: %w", err))
	}

	span.SetStatus(otelcodes.Ok, "transaction upserted")
	return nil
}

// FindByReference リファレンスでトランザクションを取得
func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindByReference")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.reference", reference),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	query := `SELECT ` + transactionColumnList + ` FROM transactions WHERE reference = ?`

	t, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "transaction not found")
		return nil, transaction.ErrTransactionNotFound
	}
	if err != nil {
		return nil, r.fail(span, err)
	}

	span.SetAttributes(attribute.String("db.status", t.Status().String()))
	span.SetStatus(otelcodes.Ok, "transaction found")
	return t, nil
}

// FindAll 新しい順にトランザクションを取得し、条件に一致する総件数も返す。statusが空なら全件
func (r *TransactionRepository) FindAll(ctx context.Context, status transaction.TransactionStatus, limit, offset int) ([]*transaction.Transaction, int, error) {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.FindAll")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.status", status.String()),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "transactions"),
	)

	where := ""
	var args []interface{}
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, status.String())
	}

	var total int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, r.fail(span, fmt.Errorf("failed to count transactions: %w", err))
	}

	query := `SELECT ` + transactionColumnList + ` FROM transactions` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, r.fail(span, fmt.Errorf("failed to query transactions: %w", err))
	}
	defer rows.Close()

	transactions := make([]*transaction.Transaction, 0, limit)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, r.fail(span, err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.fail(span, fmt.Errorf("failed to iterate transactions: %w", err))
	}

	span.SetAttributes(attribute.Int("db.total", total))
	span.SetStatus(otelcodes.Ok, "transactions listed")
	return transactions, total, nil
}

const transactionColumnList = `
	reference, payment, customer, order_details, provider_response,
	error_detail, status, balance_before, balance_after, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTransaction 1行をTransactionに復元する。行がなければ sql.ErrNoRows をそのまま返す
func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var (
		dbReference                                        string
		paymentJSON, customerJSON, orderJSON, providerJSON sql.NullString
		errorDetail                                        sql.NullString
		dbStatus                                           string
		balanceBefore, balanceAfter                        decimal.NullDecimal
		createdAt, updatedAt                               time.Time
	)

	err := row.Scan(
		&dbReference,
		&paymentJSON,
		&customerJSON,
		&orderJSON,
		&providerJSON,
		&errorDetail,
		&dbStatus,
		&balanceBefore,
		&balanceAfter,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	status, err := transaction.NewTransactionStatus(dbStatus)
	if err != nil {
		return nil, err
	}

	var payment *transaction.Payment
	if err := unmarshalSection(paymentJSON, &payment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}
	var customer *transaction.Customer
	if err := unmarshalSection(customerJSON, &customer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer: %w", err)
	}
	var order *transaction.OrderDetails
	if err := unmarshalSection(orderJSON, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order details: %w", err)
	}
	var provider *transaction.ProviderResponse
	if err := unmarshalSection(providerJSON, &provider); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provider response: %w", err)
	}

	var errorDetailPtr *string
	if errorDetail.Valid {
		errorDetailPtr = &errorDetail.String
	}

	return transaction.Reconstruct(
		dbReference,
		payment,
		customer,
		order,
		provider,
		errorDetailPtr,
		status,
		decimalPtr(balanceBefore),
		decimalPtr(balanceAfter),
		createdAt,
		updatedAt,
	), nil
}

// MarkFailed ステータスをfailedにして理由を記録。レコードがなければ作成する
func (r *TransactionRepository) MarkFailed(ctx context.Context, reference, reason string, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.MarkFailed")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.reference", reference),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		INSERT INTO transactions (reference, error_detail, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			error_detail = VALUES(error_detail),
			status = VALUES(status),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		reference,
		reason,
		transaction.TransactionStatusFailed.String(),
		at,
		at,
	)
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to mark transaction failed: %w", err))
	}

	span.SetStatus(otelcodes.Ok, "transaction marked failed")
	return nil
}

// UpdateBalances 注文前後の残高を記録
func (r *TransactionRepository) UpdateBalances(ctx context.Context, reference string, before, after decimal.Decimal, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "TransactionRepository.UpdateBalances")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.reference", reference),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "transactions"),
	)

	query := `
		UPDATE transactions
		SET balance_before = ?, balance_after = ?, updated_at = ?
		WHERE reference = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, before, after, at, reference)
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to update balances: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return r.fail(span, fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "transaction not found")
		return transaction.ErrTransactionNotFound
	}

	span.SetStatus(otelcodes.Ok, "balances updated")
	return nil
}

func (r *TransactionRepository) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

// marshalSection nilならNULL、そうでなければJSON文字列を返す
func marshalSection[T any](section *T) (interface{}, error) {
	if section == nil {
		return nil, nil
	}
	data, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalSection[T any](raw sql.NullString, dest **T) error {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(raw.String), &v); err != nil {
		return err
	}
	*dest = &v
	return nil
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
