package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sinicar/installment-engine/internal/domain"
	customError "github.com/sinicar/installment-engine/pkg/errors"
)

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.InstallmentSettings, error) {
	query := `
		SELECT key, enable_installments, min_installment_value,
		       max_installment_value, min_duration_months,
		       max_duration_months, allow_supplier_offers, updated_at
		FROM installment_settings
		WHERE key = $1
	`

	var settings domain.InstallmentSettings
	if err := r.db.GetContext(ctx, &settings, query, domain.SettingsKeyGlobal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapSettingsNotFound()
		}
		return nil, err
	}

	return &settings, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *domain.InstallmentSettings) error {
	query := `
		INSERT INTO installment_settings (
			key, enable_installments, min_installment_value,
			max_installment_value, min_duration_months,
			max_duration_months, allow_supplier_offers, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (key) DO UPDATE
		SET enable_installments   = EXCLUDED.enable_installments,
		    min_installment_value = EXCLUDED.min_installment_value,
		    max_installment_value = EXCLUDED.max_installment_value,
		    min_duration_months   = EXCLUDED.min_duration_months,
		    max_duration_months   = EXCLUDED.max_duration_months,
		    allow_supplier_offers = EXCLUDED.allow_supplier_offers,
		    updated_at            = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		domain.SettingsKeyGlobal,
		settings.EnableInstallments,
		settings.MinInstallmentValue,
		settings.MaxInstallmentValue,
		settings.MinDurationMonths,
		settings.MaxDurationMonths,
		settings.AllowSupplierOffers,
	)
	return err
}
