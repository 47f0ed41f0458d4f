package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sinicar/installment-engine/internal/domain"
	customError "github.com/sinicar/installment-engine/pkg/errors"
)

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.InstallmentRequest) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO installment_requests (
			id, customer_id, customer_name, total_requested_value,
			payment_frequency, requested_duration_months, status,
			sinicar_decision, allowed_for_suppliers, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.ExecContext(ctx, query,
		request.ID,
		request.CustomerID,
		request.CustomerName,
		request.TotalRequestedValue,
		request.PaymentFrequency,
		request.RequestedDurationMonths,
		request.Status,
		request.SinicarDecision,
		request.AllowedForSuppliers,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO installment_items (id, request_id, part_number, name, quantity, estimated_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range request.Items {
		_, err = tx.ExecContext(ctx, itemQuery,
			item.ID,
			item.RequestID,
			item.PartNumber,
			item.Name,
			item.Quantity,
			item.EstimatedPrice,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentRequest, error) {
	query := `
		SELECT id, customer_id, customer_name, total_requested_value,
		       payment_frequency, requested_duration_months, status,
		       sinicar_decision, review_notes, reviewed_by, reviewed_at,
		       allowed_for_suppliers, accepted_offer_id, closed_reason,
		       closed_at, created_at, updated_at
		FROM installment_requests
		WHERE id = $1
	`

	var request domain.InstallmentRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapRequestNotFound(id.String())
		}
		return nil, err
	}

	itemQuery := `
		SELECT id, request_id, part_number, name, quantity, estimated_price
		FROM installment_items
		WHERE request_id = $1
		ORDER BY part_number
	`
	if err := r.db.SelectContext(ctx, &request.Items, itemQuery, id); err != nil {
		return nil, err
	}

	supplierQuery := `
		SELECT supplier_id
		FROM request_suppliers
		WHERE request_id = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &request.ForwardedSupplierIDs, supplierQuery, id); err != nil {
		return nil, err
	}

	return &request, nil
}

func (r *requestRepository) FindMany(ctx context.Context, filter domain.RequestFilter) ([]*domain.InstallmentRequest, error) {
	query := `
		SELECT r.id, r.customer_id, r.customer_name, r.total_requested_value,
		       r.payment_frequency, r.requested_duration_months, r.status,
		       r.sinicar_decision, r.review_notes, r.reviewed_by, r.reviewed_at,
		       r.allowed_for_suppliers, r.accepted_offer_id, r.closed_reason,
		       r.closed_at, r.created_at, r.updated_at
		FROM installment_requests r
		WHERE 1=1
	`

	args := []interface{}{}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND r.customer_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	if filter.SupplierID != nil {
		args = append(args, *filter.SupplierID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM request_suppliers rs WHERE rs.request_id = r.id AND rs.supplier_id = $%d)", len(args))
	}

	query += " ORDER BY r.created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	requests := []*domain.InstallmentRequest{}
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error {
	query := `
		UPDATE installment_requests
		SET status                = $3,
		    sinicar_decision      = COALESCE($4, sinicar_decision),
		    review_notes          = COALESCE($5, review_notes),
		    reviewed_by           = COALESCE($6, reviewed_by),
		    reviewed_at           = COALESCE($7, reviewed_at),
		    allowed_for_suppliers = COALESCE($8, allowed_for_suppliers),
		    closed_reason         = COALESCE($9, closed_reason),
		    closed_at             = COALESCE($10, closed_at),
		    updated_at            = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		update.ExpectedStatus,
		update.NewStatus,
		update.SinicarDecision,
		update.ReviewNotes,
		update.ReviewedBy,
		update.ReviewedAt,
		update.AllowedForSuppliers,
		update.ClosedReason,
		update.ClosedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.transitionConflict(ctx, id, update.NewStatus)
	}

	return nil
}

func (r *requestRepository) SetForwardedSuppliers(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, supplierIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE installment_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, expected, domain.RequestStatusForwardedToSuppliers)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.transitionConflict(ctx, id, domain.RequestStatusForwardedToSuppliers)
	}

	// Replace the routed set: the table always reflects the latest
	// forwarding decision.
	if _, err = tx.ExecContext(ctx, `DELETE FROM request_suppliers WHERE request_id = $1`, id); err != nil {
		return err
	}

	for i, supplierID := range supplierIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO request_suppliers (request_id, supplier_id, position)
			VALUES ($1, $2, $3)
		`, id, supplierID, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// transitionConflict turns a zero-row guarded update into the right
// domain error: the request is either missing or no longer in the
// status the caller observed.
func (r *requestRepository) transitionConflict(ctx context.Context, id uuid.UUID, requested domain.RequestStatus) error {
	var current domain.RequestStatus
	err := r.db.GetContext(ctx, &current, `SELECT status FROM installment_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapRequestNotFound(id.String())
	}
	if err != nil {
		return err
	}
	return customError.WrapInvalidTransition(string(current), string(requested))
}
