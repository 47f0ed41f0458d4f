package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestStatus is the lifecycle state of an installment request.
type RequestStatus string

const (
	RequestStatusPendingSinicarReview           RequestStatus = "PENDING_SINICAR_REVIEW"
	RequestStatusWaitingCustomerOnPartialSinicar RequestStatus = "WAITING_FOR_CUSTOMER_DECISION_ON_PARTIAL_SINICAR"
	RequestStatusForwardedToSuppliers           RequestStatus = "FORWARDED_TO_SUPPLIERS"
	RequestStatusWaitingSupplierOffers          RequestStatus = "WAITING_FOR_SUPPLIER_OFFERS"
	RequestStatusWaitingCustomerOnSupplierOffer RequestStatus = "WAITING_FOR_CUSTOMER_DECISION_ON_SUPPLIER_OFFER"
	RequestStatusActiveContract                 RequestStatus = "ACTIVE_CONTRACT"
	RequestStatusCompleted                      RequestStatus = "COMPLETED"
	RequestStatusCancelled                      RequestStatus = "CANCELLED"
	RequestStatusClosed                         RequestStatus = "CLOSED"
	RequestStatusRejectedBySinicar              RequestStatus = "REJECTED_BY_SINICAR"
)

// SinicarDecision is the internal reviewer's verdict on a request.
type SinicarDecision string

const (
	DecisionPending         SinicarDecision = "PENDING"
	DecisionApprovedFull    SinicarDecision = "APPROVED_FULL"
	DecisionApprovedPartial SinicarDecision = "APPROVED_PARTIAL"
	DecisionRejected        SinicarDecision = "REJECTED"
)

// PaymentFrequency controls how installment entries are spaced.
type PaymentFrequency string

const (
	FrequencyWeekly  PaymentFrequency = "WEEKLY"
	FrequencyMonthly PaymentFrequency = "MONTHLY"
)

// InstallmentRequest is a customer's ask to finance a set of parts via
// installments. It is never physically deleted; the status always
// terminates into CANCELLED, REJECTED_BY_SINICAR, CLOSED or COMPLETED.
type InstallmentRequest struct {
	ID                      uuid.UUID        `json:"id" db:"id"`
	CustomerID              uuid.UUID        `json:"customer_id" db:"customer_id"`
	CustomerName            string           `json:"customer_name" db:"customer_name"`
	TotalRequestedValue     decimal.Decimal  `json:"total_requested_value" db:"total_requested_value"`
	PaymentFrequency        PaymentFrequency `json:"payment_frequency" db:"payment_frequency"`
	RequestedDurationMonths int              `json:"requested_duration_months" db:"requested_duration_months"`
	Status                  RequestStatus    `json:"status" db:"status"`
	SinicarDecision         SinicarDecision  `json:"sinicar_decision" db:"sinicar_decision"`
	ReviewNotes             *string          `json:"review_notes,omitempty" db:"review_notes"`
	ReviewedBy              *uuid.UUID       `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt              *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	AllowedForSuppliers     bool             `json:"allowed_for_suppliers" db:"allowed_for_suppliers"`
	AcceptedOfferID         *uuid.UUID       `json:"accepted_offer_id,omitempty" db:"accepted_offer_id"`
	ClosedReason            *string          `json:"closed_reason,omitempty" db:"closed_reason"`
	ClosedAt                *time.Time       `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt               time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at" db:"updated_at"`

	// ForwardedSupplierIDs is the set of suppliers the request was routed
	// to, kept in its own table by the store.
	ForwardedSupplierIDs []uuid.UUID `json:"forwarded_supplier_ids,omitempty" db:"-"`

	Items []InstallmentItem `json:"items,omitempty" db:"-"`
}

// InstallmentItem is a line item of a request. Items are created
// atomically with their request and are immutable thereafter.
type InstallmentItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	RequestID      uuid.UUID       `json:"request_id" db:"request_id"`
	PartNumber     string          `json:"part_number" db:"part_number"`
	Name           string          `json:"name" db:"name"`
	Quantity       int             `json:"quantity" db:"quantity"`
	EstimatedPrice decimal.Decimal `json:"estimated_price" db:"estimated_price"`
}

// DTOs carried between the transport layer and the engine.

type CreateItemInput struct {
	PartNumber     string          `json:"part_number" validate:"required"`
	Name           string          `json:"name" validate:"required"`
	Quantity       int             `json:"quantity" validate:"required,gte=1"`
	EstimatedPrice decimal.Decimal `json:"estimated_price" validate:"gt=0"`
}

type CreateRequestInput struct {
	TotalRequestedValue     decimal.Decimal   `json:"total_requested_value" validate:"gt=0"`
	PaymentFrequency        PaymentFrequency  `json:"payment_frequency" validate:"required,oneof=WEEKLY MONTHLY"`
	RequestedDurationMonths int               `json:"requested_duration_months" validate:"required,gte=1"`
	Items                   []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

type ReviewInput struct {
	Decision            SinicarDecision `json:"decision" validate:"required,oneof=APPROVED_FULL APPROVED_PARTIAL REJECTED"`
	Notes               string          `json:"notes"`
	AllowedForSuppliers bool            `json:"allowed_for_suppliers"`
}

// RequestFilter narrows FindMany results. Nil fields match everything.
type RequestFilter struct {
	CustomerID *uuid.UUID
	SupplierID *uuid.UUID
	Status     *RequestStatus
	Limit      int
	Offset     int
}
