package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sinicar/installment-engine/internal/domain"
	customError "github.com/sinicar/installment-engine/pkg/errors"
)

type offerRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, offer *domain.InstallmentOffer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO installment_offers (
			id, request_id, source_type, supplier_id, supplier_name,
			type, total_approved_value, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, query,
		offer.ID,
		offer.RequestID,
		offer.SourceType,
		offer.SupplierID,
		offer.SupplierName,
		offer.Type,
		offer.TotalApprovedValue,
		offer.Status,
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO offer_items (id, offer_id, part_number, name, quantity, approved_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, item := range offer.ItemsApproved {
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.OfferID,
			item.PartNumber,
			item.Name,
			item.Quantity,
			item.ApprovedPrice,
		)
		if err != nil {
			return err
		}
	}

	entryQuery := `
		INSERT INTO offer_schedule (offer_id, payment_number, due_date, amount, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range offer.Schedule {
		_, err = tx.ExecContext(ctx, entryQuery,
			offer.ID,
			entry.PaymentNumber,
			entry.DueDate,
			entry.Amount,
			entry.Status,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *offerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentOffer, error) {
	query := `
		SELECT id, request_id, source_type, supplier_id, supplier_name,
		       type, total_approved_value, status, responded_at,
		       created_at, updated_at
		FROM installment_offers
		WHERE id = $1
	`

	var offer domain.InstallmentOffer
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapOfferNotFound(id.String())
		}
		return nil, err
	}

	if err := r.loadDetails(ctx, &offer); err != nil {
		return nil, err
	}

	return &offer, nil
}

func (r *offerRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*domain.InstallmentOffer, error) {
	query := `
		SELECT id, request_id, source_type, supplier_id, supplier_name,
		       type, total_approved_value, status, responded_at,
		       created_at, updated_at
		FROM installment_offers
		WHERE request_id = $1
		ORDER BY created_at
	`

	offers := []*domain.InstallmentOffer{}
	if err := r.db.SelectContext(ctx, &offers, query, requestID); err != nil {
		return nil, err
	}

	for _, offer := range offers {
		if err := r.loadDetails(ctx, offer); err != nil {
			return nil, err
		}
	}

	return offers, nil
}

func (r *offerRepository) loadDetails(ctx context.Context, offer *domain.InstallmentOffer) error {
	itemQuery := `
		SELECT id, offer_id, part_number, name, quantity, approved_price
		FROM offer_items
		WHERE offer_id = $1
		ORDER BY part_number
	`
	if err := r.db.SelectContext(ctx, &offer.ItemsApproved, itemQuery, offer.ID); err != nil {
		return err
	}

	entryQuery := `
		SELECT payment_number, due_date, amount, status
		FROM offer_schedule
		WHERE offer_id = $1
		ORDER BY payment_number
	`
	return r.db.SelectContext(ctx, &offer.Schedule, entryQuery, offer.ID)
}

func (r *offerRepository) RespondToOffer(ctx context.Context, offerID uuid.UUID, accept bool, respondedAt time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	offerStatus := domain.OfferStatusRejectedByCustomer
	if accept {
		offerStatus = domain.OfferStatusAcceptedByCustomer
	}

	// Guarded offer update. A zero-row result means some other response
	// already landed (or the offer is gone); the caller must see a clean
	// invalid-transition error, never a half-applied response.
	var requestID uuid.UUID
	err = tx.GetContext(ctx, &requestID, `
		UPDATE installment_offers
		SET status = $2, responded_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING request_id
	`, offerID, offerStatus, respondedAt, domain.OfferStatusWaitingForCustomer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.offerConflict(ctx, offerID, offerStatus)
		}
		return err
	}

	var result sql.Result
	if accept {
		result, err = tx.ExecContext(ctx, `
			UPDATE installment_requests
			SET status = $3, accepted_offer_id = $2, updated_at = NOW()
			WHERE id = $1 AND status = $4
		`, requestID, offerID,
			domain.RequestStatusActiveContract,
			domain.RequestStatusWaitingCustomerOnSupplierOffer)
	} else {
		result, err = tx.ExecContext(ctx, `
			UPDATE installment_requests
			SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, requestID,
			domain.RequestStatusWaitingSupplierOffers,
			domain.RequestStatusWaitingCustomerOnSupplierOffer)
	}
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current domain.RequestStatus
		if err := tx.GetContext(ctx, &current, `SELECT status FROM installment_requests WHERE id = $1`, requestID); err != nil {
			return err
		}
		requested := domain.RequestStatusWaitingSupplierOffers
		if accept {
			requested = domain.RequestStatusActiveContract
		}
		return customError.WrapInvalidTransition(string(current), string(requested))
	}

	return tx.Commit()
}

func (r *offerRepository) offerConflict(ctx context.Context, offerID uuid.UUID, requested domain.OfferStatus) error {
	var current domain.OfferStatus
	err := r.db.GetContext(ctx, &current, `SELECT status FROM installment_offers WHERE id = $1`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapOfferNotFound(offerID.String())
	}
	if err != nil {
		return err
	}
	return customError.WrapInvalidTransition(string(current), string(requested))
}

func (r *offerRepository) MarkOverdueEntries(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE offer_schedule
		SET status = $1
		WHERE status = $2
		  AND due_date < $3
		  AND offer_id IN (
			SELECT id FROM installment_offers WHERE status = $4
		  )
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.EntryStatusOverdue,
		domain.EntryStatusPending,
		asOf,
		domain.OfferStatusAcceptedByCustomer,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
