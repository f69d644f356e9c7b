package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paybridge/internal/domain/settings"
)

// settingsRowID ベンダー連携設定の行ID
const settingsRowID = "instant_data_config"

// SettingsRepository MySQL実装のSettingsRepository
type SettingsRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewSettingsRepository 新しいSettingsRepositoryを作成
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		tracer: otel.Tracer("settings-repository"),
	}
}

// Get 設定を取得
func (r *SettingsRepository) Get(ctx context.Context) (*settings.SystemSettings, error) {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "system_settings"),
	)

	query := `
		SELECT current_balance, is_service_active, last_updated
		FROM system_settings
		WHERE id = ?
	`

	var (
		balance     decimal.Decimal
		active      sql.NullBool
		lastUpdated time.Time
	)
	err := r.db.conn(ctx).QueryRowContext(ctx, query, settingsRowID).Scan(&balance, &active, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "settings not found")
		return nil, settings.ErrSettingsNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed to get system settings: %w", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	var activePtr *bool
	if active.Valid {
		activePtr = &active.Bool
	}

	span.SetStatus(otelcodes.Ok, "settings found")
	return settings.NewSystemSettings(balance, activePtr, lastUpdated), nil
}

// SaveBalance 残高を保存。行がなければ停止状態で作成し、既存の停止スイッチは保持する
func (r *SettingsRepository) SaveBalance(ctx context.Context, balance decimal.Decimal, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.SaveBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.balance", balance.StringFixed(2)),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "system_settings"),
	)

	query := `
		INSERT INTO system_settings (id, current_balance, is_service_active, last_updated)
		VALUES (?, ?, FALSE, ?)
		ON DUPLICATE KEY UPDATE
			current_balance = VALUES(current_balance),
			last_updated = VALUES(last_updated)
	`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, settingsRowID, balance.StringFixed(2), at); err != nil {
		err = fmt.Errorf("failed to save balance: %w", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "balance saved")
	return nil
}

// SaveServiceActive 停止スイッチを保存（行がなければ作成、残高は保持）
func (r *SettingsRepository) SaveServiceActive(ctx context.Context, active bool, at time.Time) error {
	ctx, span := r.tracer.Start(ctx, "SettingsRepository.SaveServiceActive")
	defer span.End()

	span.SetAttributes(
		attribute.Bool("db.service_active", active),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "system_settings"),
	)

	query := `
		INSERT INTO system_settings (id, is_service_active, last_updated)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE
			is_service_active = VALUES(is_service_active),
			last_updated = VALUES(last_updated)
	`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, settingsRowID, active, at); err != nil {
		err = fmt.Errorf("failed to save service flag: %w", err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	span.SetStatus(otelcodes.Ok, "service flag saved")
	return nil
}
