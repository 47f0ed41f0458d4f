package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferSourceType says which actor produced an offer.
type OfferSourceType string

const (
	SourceSinicar  OfferSourceType = "SINICAR"
	SourceSupplier OfferSourceType = "SUPPLIER"
)

// OfferType distinguishes full approvals from partial ones.
type OfferType string

const (
	OfferTypeFull    OfferType = "FULL"
	OfferTypePartial OfferType = "PARTIAL"
)

// OfferStatus is the lifecycle state of a single offer.
type OfferStatus string

const (
	OfferStatusWaitingForCustomer  OfferStatus = "WAITING_FOR_CUSTOMER"
	OfferStatusAcceptedByCustomer  OfferStatus = "ACCEPTED_BY_CUSTOMER"
	OfferStatusRejectedByCustomer  OfferStatus = "REJECTED_BY_CUSTOMER"
)

// InstallmentOffer is a financing proposal against a request, from the
// internal reviewer or a supplier. Offers are mutated exactly once, by
// the customer's accept/reject response, and never deleted.
type InstallmentOffer struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	RequestID          uuid.UUID       `json:"request_id" db:"request_id"`
	SourceType         OfferSourceType `json:"source_type" db:"source_type"`
	SupplierID         *uuid.UUID      `json:"supplier_id,omitempty" db:"supplier_id"`
	SupplierName       *string         `json:"supplier_name,omitempty" db:"supplier_name"`
	Type               OfferType       `json:"type" db:"type"`
	TotalApprovedValue decimal.Decimal `json:"total_approved_value" db:"total_approved_value"`
	Status             OfferStatus     `json:"status" db:"status"`
	RespondedAt        *time.Time      `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`

	ItemsApproved []OfferItem    `json:"items_approved,omitempty" db:"-"`
	Schedule      []PaymentEntry `json:"schedule" db:"-"`
}

// OfferItem is the approved subset of a request's line items carried by
// a partial offer.
type OfferItem struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	OfferID       uuid.UUID       `json:"offer_id" db:"offer_id"`
	PartNumber    string          `json:"part_number" db:"part_number"`
	Name          string          `json:"name" db:"name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	ApprovedPrice decimal.Decimal `json:"approved_price" db:"approved_price"`
}

// OfferCreator identifies the acting party on offer creation.
type OfferCreator struct {
	SourceType   OfferSourceType
	SupplierID   *uuid.UUID
	SupplierName *string
}

type OfferItemInput struct {
	PartNumber    string          `json:"part_number" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Quantity      int             `json:"quantity" validate:"required,gte=1"`
	ApprovedPrice decimal.Decimal `json:"approved_price" validate:"gt=0"`
}

type CreateOfferInput struct {
	Type               OfferType        `json:"type" validate:"required,oneof=FULL PARTIAL"`
	TotalApprovedValue decimal.Decimal  `json:"total_approved_value" validate:"gt=0"`
	ItemsApproved      []OfferItemInput `json:"items_approved" validate:"omitempty,dive"`
	// Schedule is optional; when absent the engine generates one from
	// the parent request's duration and frequency.
	Schedule []PaymentEntry `json:"schedule" validate:"omitempty,min=1"`
}
