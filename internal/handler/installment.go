package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/sinicar/installment-engine/internal/domain"
	"github.com/sinicar/installment-engine/internal/service"
	customError "github.com/sinicar/installment-engine/pkg/errors"
	"github.com/sinicar/installment-engine/pkg/response"
)

// Caller identity headers. Authentication happens upstream; the
// gateway injects the verified identity of the acting party.
const (
	headerCustomerID   = "X-Customer-ID"
	headerCustomerName = "X-Customer-Name"
	headerActorID      = "X-Actor-ID"
	headerSupplierID   = "X-Supplier-ID"
	headerSupplierName = "X-Supplier-Name"
)

type InstallmentHandler struct {
	service   *service.InstallmentService
	validator *validator.Validate
}

func NewInstallmentHandler(svc *service.InstallmentService) *InstallmentHandler {
	v := validator.New()
	// Validate decimal fields through their float value so numeric tags
	// (gt, gte) apply to them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return &InstallmentHandler{
		service:   svc,
		validator: v,
	}
}

// CreateRequest handles POST /installments
func (h *InstallmentHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.identity(w, r, headerCustomerID)
	if !ok {
		return
	}

	var input domain.CreateRequestInput
	if !h.decode(w, r, &input) {
		return
	}

	request, err := h.service.CreateRequest(r.Context(), customerID, r.Header.Get(headerCustomerName), &input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, request)
}

// ListRequests handles GET /installments
func (h *InstallmentHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filter := domain.RequestFilter{}

	if v := r.URL.Query().Get("customer_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "customer_id must be a valid UUID", err)
			return
		}
		filter.CustomerID = &id
	}
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "supplier_id must be a valid UUID", err)
			return
		}
		filter.SupplierID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.RequestStatus(v)
		filter.Status = &status
	}

	requests, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, requests)
}

// GetRequest handles GET /installments/{requestId}
func (h *InstallmentHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	request, offers, err := h.service.GetRequest(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"request": request,
		"offers":  offers,
	})
}

// Review handles POST /installments/{requestId}/review
func (h *InstallmentHandler) Review(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}
	reviewerID, ok := h.identity(w, r, headerActorID)
	if !ok {
		return
	}

	var input domain.ReviewInput
	if !h.decode(w, r, &input) {
		return
	}

	request, err := h.service.AdminReview(r.Context(), requestID, reviewerID, &input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

type forwardInput struct {
	SupplierIDs []uuid.UUID `json:"supplier_ids" validate:"required,min=1"`
}

// Forward handles POST /installments/{requestId}/forward
func (h *InstallmentHandler) Forward(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	var input forwardInput
	if !h.decode(w, r, &input) {
		return
	}

	request, err := h.service.ForwardToSuppliers(r.Context(), requestID, input.SupplierIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

// CreateOffer handles POST /installments/{requestId}/offers
func (h *InstallmentHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	creator := domain.OfferCreator{SourceType: domain.SourceSinicar}
	if v := r.Header.Get(headerSupplierID); v != "" {
		supplierID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, headerSupplierID+" must be a valid UUID", err)
			return
		}
		creator.SourceType = domain.SourceSupplier
		creator.SupplierID = &supplierID
		if name := r.Header.Get(headerSupplierName); name != "" {
			creator.SupplierName = &name
		}
	}

	var input domain.CreateOfferInput
	if !h.decode(w, r, &input) {
		return
	}

	offer, err := h.service.CreateOffer(r.Context(), requestID, creator, &input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, offer)
}

type offerResponseInput struct {
	Action string `json:"action" validate:"required,oneof=ACCEPT REJECT"`
}

// RespondToOffer handles POST /offers/{offerId}/response
func (h *InstallmentHandler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	offerID, ok := h.pathID(w, r, "offerId")
	if !ok {
		return
	}
	customerID, ok := h.identity(w, r, headerCustomerID)
	if !ok {
		return
	}

	var input offerResponseInput
	if !h.decode(w, r, &input) {
		return
	}

	offer, request, err := h.service.CustomerOfferResponse(r.Context(), offerID, customerID, input.Action == "ACCEPT")
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"offer":   offer,
		"request": request,
	})
}

type closeInput struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /installments/{requestId}/cancel
func (h *InstallmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}
	customerID, ok := h.identity(w, r, headerCustomerID)
	if !ok {
		return
	}

	var input closeInput
	if !h.decode(w, r, &input) {
		return
	}

	request, err := h.service.Cancel(r.Context(), requestID, customerID, input.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

// Close handles POST /installments/{requestId}/close
func (h *InstallmentHandler) Close(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	var input closeInput
	if !h.decode(w, r, &input) {
		return
	}

	request, err := h.service.Close(r.Context(), requestID, input.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

// Complete handles POST /installments/{requestId}/complete
func (h *InstallmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	requestID, ok := h.pathID(w, r, "requestId")
	if !ok {
		return
	}

	request, err := h.service.Complete(r.Context(), requestID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, request)
}

// GetSettings handles GET /settings/installments
func (h *InstallmentHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, settings)
}

// UpdateSettings handles PUT /settings/installments
func (h *InstallmentHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var input domain.UpdateSettingsInput
	if !h.decode(w, r, &input) {
		return
	}

	settings, err := h.service.UpdateSettings(r.Context(), &input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, settings)
}

func (h *InstallmentHandler) decode(w http.ResponseWriter, r *http.Request, input interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(input); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return false
	}
	if err := h.validator.Struct(input); err != nil {
		response.BadRequest(w, "validation failed", err)
		return false
	}
	return true
}

func (h *InstallmentHandler) identity(w http.ResponseWriter, r *http.Request, header string) (uuid.UUID, bool) {
	value := r.Header.Get(header)
	if value == "" {
		response.BadRequest(w, header+" header is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(value)
	if err != nil {
		response.BadRequest(w, header+" must be a valid UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *InstallmentHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID", err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain error kinds onto HTTP statuses. This mapping
// lives only in the transport layer.
func writeError(w http.ResponseWriter, err error) {
	var businessErr *customError.BusinessError
	message := "request failed"
	if errors.As(err, &businessErr) {
		message = businessErr.Message
	}

	switch {
	case errors.Is(err, customError.ErrNotFound):
		response.NotFound(w, message)
	case errors.Is(err, customError.ErrForbidden):
		response.Forbidden(w, message)
	case errors.Is(err, customError.ErrInvalidTransition):
		response.Conflict(w, message, err)
	case errors.Is(err, customError.ErrFeatureDisabled),
		errors.Is(err, customError.ErrValueOutOfRange),
		errors.Is(err, customError.ErrDurationOutOfRange),
		errors.Is(err, customError.ErrNotAllowedForSuppliers):
		response.UnprocessableEntity(w, message, err)
	default:
		response.InternalServerError(w, "internal error", err)
	}
}
