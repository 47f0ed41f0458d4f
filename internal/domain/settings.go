package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsKeyGlobal is the key of the singleton policy row.
const SettingsKeyGlobal = "global"

// InstallmentSettings is the policy record controlling what requests
// are admissible. It is read fresh on every create and forward call;
// the engine never caches it because administrators can change policy
// between requests.
type InstallmentSettings struct {
	Key                 string          `json:"key" db:"key"`
	EnableInstallments  bool            `json:"enable_installments" db:"enable_installments"`
	MinInstallmentValue decimal.Decimal `json:"min_installment_value" db:"min_installment_value"`
	MaxInstallmentValue decimal.Decimal `json:"max_installment_value" db:"max_installment_value"`
	MinDurationMonths   int             `json:"min_duration_months" db:"min_duration_months"`
	MaxDurationMonths   int             `json:"max_duration_months" db:"max_duration_months"`
	AllowSupplierOffers bool            `json:"allow_supplier_offers" db:"allow_supplier_offers"`
	UpdatedAt           time.Time       `json:"updated_at" db:"updated_at"`
}

type UpdateSettingsInput struct {
	EnableInstallments  bool            `json:"enable_installments"`
	MinInstallmentValue decimal.Decimal `json:"min_installment_value" validate:"gt=0"`
	MaxInstallmentValue decimal.Decimal `json:"max_installment_value" validate:"gt=0"`
	MinDurationMonths   int             `json:"min_duration_months" validate:"required,gte=1"`
	MaxDurationMonths   int             `json:"max_duration_months" validate:"required,gte=1"`
	AllowSupplierOffers bool            `json:"allow_supplier_offers"`
}
