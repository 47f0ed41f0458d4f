// Package policy validates proposed installment requests against the
// configured bounds. Validation is a pure predicate; callers pass the
// settings they just read so policy changes take effect immediately.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/sinicar/installment-engine/internal/domain"
	customError "github.com/sinicar/installment-engine/pkg/errors"
)

// Validate checks a proposed value and duration against settings. It
// fails fast with the first violated bound, checked in order value-min,
// value-max, duration-min, duration-max. Bounds are inclusive. When
// installments are disabled it short-circuits before any bound check.
func Validate(settings *domain.InstallmentSettings, value decimal.Decimal, durationMonths int) error {
	if !settings.EnableInstallments {
		return customError.WrapFeatureDisabled()
	}

	if value.LessThan(settings.MinInstallmentValue) || value.GreaterThan(settings.MaxInstallmentValue) {
		return customError.WrapValueOutOfRange(
			value.String(),
			settings.MinInstallmentValue.String(),
			settings.MaxInstallmentValue.String(),
		)
	}

	if durationMonths < settings.MinDurationMonths || durationMonths > settings.MaxDurationMonths {
		return customError.WrapDurationOutOfRange(
			durationMonths,
			settings.MinDurationMonths,
			settings.MaxDurationMonths,
		)
	}

	return nil
}
