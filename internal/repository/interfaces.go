package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sinicar/installment-engine/internal/domain"
)

// StatusUpdate carries a guarded status transition plus the side fields
// written in the same statement. ExpectedStatus is the optimistic
// guard: the write only lands if the row still holds that status, which
// is what serializes racing transitions.
type StatusUpdate struct {
	ExpectedStatus domain.RequestStatus
	NewStatus      domain.RequestStatus

	SinicarDecision     *domain.SinicarDecision
	ReviewNotes         *string
	ReviewedBy          *uuid.UUID
	ReviewedAt          *time.Time
	AllowedForSuppliers *bool
	ClosedReason        *string
	ClosedAt            *time.Time
}

// RequestRepository defines the interface for installment request data operations
type RequestRepository interface {
	// Create persists a request together with its line items atomically
	Create(ctx context.Context, request *domain.InstallmentRequest) error

	// FindByID retrieves a request with its items and routed supplier ids
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentRequest, error)

	// FindMany retrieves requests matching the filter, newest first
	FindMany(ctx context.Context, filter domain.RequestFilter) ([]*domain.InstallmentRequest, error)

	// UpdateStatus applies a guarded status transition plus side fields in one write
	UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error

	// SetForwardedSuppliers replaces the routed supplier set and moves the
	// request to FORWARDED_TO_SUPPLIERS in one transaction
	SetForwardedSuppliers(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, supplierIDs []uuid.UUID) error
}

// OfferRepository defines the interface for installment offer data operations
type OfferRepository interface {
	// Create persists an offer with its approved items and schedule entries
	Create(ctx context.Context, offer *domain.InstallmentOffer) error

	// FindByID retrieves an offer with its approved items and schedule
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentOffer, error)

	// FindByRequestID retrieves the offer history of a request, oldest first
	FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*domain.InstallmentOffer, error)

	// RespondToOffer records the customer's accept/reject decision on the
	// offer and advances the parent request in a single transaction. On
	// accept the request becomes ACTIVE_CONTRACT with accepted_offer_id
	// set; on reject it returns to WAITING_FOR_SUPPLIER_OFFERS. Both
	// writes are guarded by the expected current statuses, so of two
	// racing responses exactly one wins and the loser gets an
	// invalid-transition error.
	RespondToOffer(ctx context.Context, offerID uuid.UUID, accept bool, respondedAt time.Time) error

	// MarkOverdueEntries flips PENDING schedule entries past their due
	// date to OVERDUE on accepted offers, returning the number updated
	MarkOverdueEntries(ctx context.Context, asOf time.Time) (int64, error)
}

// SettingsRepository defines the interface for installment policy settings
type SettingsRepository interface {
	// Get reads the singleton policy record
	Get(ctx context.Context) (*domain.InstallmentSettings, error)

	// Update overwrites the singleton policy record
	Update(ctx context.Context, settings *domain.InstallmentSettings) error
}
