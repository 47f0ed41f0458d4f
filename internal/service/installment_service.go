package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sinicar/installment-engine/internal/config"
	"github.com/sinicar/installment-engine/internal/domain"
	"github.com/sinicar/installment-engine/internal/policy"
	"github.com/sinicar/installment-engine/internal/repository"
	customError "github.com/sinicar/installment-engine/pkg/errors"
)

// InstallmentService is the negotiation engine. It is stateless between
// calls; all negotiation state lives in the stores, so one instance is
// safely shared across concurrent callers.
type InstallmentService struct {
	requestRepo  repository.RequestRepository
	offerRepo    repository.OfferRepository
	settingsRepo repository.SettingsRepository
	redis        *redis.Client
	config       *config.Config
	events       EventSink
	now          func() time.Time
}

func NewInstallmentService(
	requestRepo repository.RequestRepository,
	offerRepo repository.OfferRepository,
	settingsRepo repository.SettingsRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *InstallmentService {
	return &InstallmentService{
		requestRepo:  requestRepo,
		offerRepo:    offerRepo,
		settingsRepo: settingsRepo,
		redis:        redisClient,
		config:       cfg,
		events:       LogEventSink{},
		now:          time.Now,
	}
}

// SetEventSink replaces the default log sink with a notification
// collaborator.
func (s *InstallmentService) SetEventSink(sink EventSink) {
	s.events = sink
}

// CreateRequest validates the proposal against current policy and
// persists it, with its items, in PENDING_SINICAR_REVIEW.
func (s *InstallmentService) CreateRequest(ctx context.Context, customerID uuid.UUID, customerName string, input *domain.CreateRequestInput) (*domain.InstallmentRequest, error) {
	// Settings are read fresh on every call; policy can change between
	// requests.
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	if err := policy.Validate(settings, input.TotalRequestedValue, input.RequestedDurationMonths); err != nil {
		return nil, err
	}

	now := s.now()
	request := &domain.InstallmentRequest{
		ID:                      uuid.New(),
		CustomerID:              customerID,
		CustomerName:            customerName,
		TotalRequestedValue:     input.TotalRequestedValue,
		PaymentFrequency:        input.PaymentFrequency,
		RequestedDurationMonths: input.RequestedDurationMonths,
		Status:                  domain.RequestStatusPendingSinicarReview,
		SinicarDecision:         domain.DecisionPending,
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	request.Items = make([]domain.InstallmentItem, 0, len(input.Items))
	for _, item := range input.Items {
		request.Items = append(request.Items, domain.InstallmentItem{
			ID:             uuid.New(),
			RequestID:      request.ID,
			PartNumber:     item.PartNumber,
			Name:           item.Name,
			Quantity:       item.Quantity,
			EstimatedPrice: item.EstimatedPrice,
		})
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, wrapRepoError(err)
	}

	s.events.Publish(ctx, Event{Type: EventRequestCreated, RequestID: request.ID, At: now})
	return request, nil
}

// requestView is the cached shape of a request with its offer history.
type requestView struct {
	Request *domain.InstallmentRequest `json:"request"`
	Offers  []*domain.InstallmentOffer `json:"offers"`
}

// GetRequest loads a request with its items and full offer history.
// Reads go through the redis cache; every mutation drops the key.
func (s *InstallmentService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.InstallmentRequest, []*domain.InstallmentOffer, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, requestCacheKey(id)).Result(); err == nil {
			var view requestView
			if json.Unmarshal([]byte(cached), &view) == nil && view.Request != nil {
				return view.Request, view.Offers, nil
			}
		}
	}

	request, err := s.requestRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}

	offers, err := s.offerRepo.FindByRequestID(ctx, id)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}

	if s.redis != nil {
		if payload, err := json.Marshal(requestView{Request: request, Offers: offers}); err == nil {
			s.redis.Set(ctx, requestCacheKey(id), payload, s.config.Redis.CacheTTL)
		}
	}

	return request, offers, nil
}

// ListRequests returns requests matching the filter, without nested
// offer history.
func (s *InstallmentService) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.InstallmentRequest, error) {
	requests, err := s.requestRepo.FindMany(ctx, filter)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return requests, nil
}

// AdminReview records the internal reviewer's verdict. Only legal while
// the request is still PENDING_SINICAR_REVIEW.
func (s *InstallmentService) AdminReview(ctx context.Context, requestID, reviewerID uuid.UUID, input *domain.ReviewInput) (*domain.InstallmentRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	next := domain.RequestStatusWaitingCustomerOnPartialSinicar
	if input.Decision == domain.DecisionRejected {
		next = domain.RequestStatusRejectedBySinicar
	}

	if request.Status != domain.RequestStatusPendingSinicarReview || !domain.CanTransition(request.Status, next) {
		return nil, customError.WrapInvalidTransition(string(request.Status), string(next))
	}

	now := s.now()
	decision := input.Decision
	update := repository.StatusUpdate{
		ExpectedStatus:      domain.RequestStatusPendingSinicarReview,
		NewStatus:           next,
		SinicarDecision:     &decision,
		ReviewedBy:          &reviewerID,
		ReviewedAt:          &now,
		AllowedForSuppliers: &input.AllowedForSuppliers,
	}
	if input.Notes != "" {
		update.ReviewNotes = &input.Notes
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, update); err != nil {
		return nil, wrapRepoError(err)
	}

	s.invalidate(ctx, requestID)
	s.events.Publish(ctx, Event{Type: EventRequestReviewed, RequestID: requestID, At: now})

	request, err = s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return request, nil
}

// ForwardToSuppliers routes the request to the given suppliers. It
// requires both the global supplier-offer toggle and the reviewer's
// per-request gate.
func (s *InstallmentService) ForwardToSuppliers(ctx context.Context, requestID uuid.UUID, supplierIDs []uuid.UUID) (*domain.InstallmentRequest, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	if !settings.AllowSupplierOffers {
		return nil, customError.WrapNotAllowedForSuppliers("supplier offers are globally disabled")
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	if !request.AllowedForSuppliers {
		return nil, customError.WrapNotAllowedForSuppliers("reviewer has not allowed this request to be forwarded")
	}

	if !domain.CanTransition(request.Status, domain.RequestStatusForwardedToSuppliers) {
		return nil, customError.WrapInvalidTransition(string(request.Status), string(domain.RequestStatusForwardedToSuppliers))
	}

	if err := s.requestRepo.SetForwardedSuppliers(ctx, requestID, request.Status, supplierIDs); err != nil {
		return nil, wrapRepoError(err)
	}

	s.invalidate(ctx, requestID)
	s.events.Publish(ctx, Event{Type: EventRequestForwarded, RequestID: requestID, At: s.now()})

	request, err = s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return request, nil
}

// CreateOffer records a financing proposal from the reviewer or a
// supplier and puts the request in front of the customer. When the
// input carries no schedule one is generated from the request's
// duration and frequency.
func (s *InstallmentService) CreateOffer(ctx context.Context, requestID uuid.UUID, creator domain.OfferCreator, input *domain.CreateOfferInput) (*domain.InstallmentOffer, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	if !domain.CanTransition(request.Status, domain.RequestStatusWaitingCustomerOnSupplierOffer) {
		return nil, customError.WrapInvalidTransition(string(request.Status), string(domain.RequestStatusWaitingCustomerOnSupplierOffer))
	}

	now := s.now()
	offer := &domain.InstallmentOffer{
		ID:                 uuid.New(),
		RequestID:          requestID,
		SourceType:         creator.SourceType,
		SupplierID:         creator.SupplierID,
		SupplierName:       creator.SupplierName,
		Type:               input.Type,
		TotalApprovedValue: input.TotalApprovedValue,
		Status:             domain.OfferStatusWaitingForCustomer,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, item := range input.ItemsApproved {
		offer.ItemsApproved = append(offer.ItemsApproved, domain.OfferItem{
			ID:            uuid.New(),
			OfferID:       offer.ID,
			PartNumber:    item.PartNumber,
			Name:          item.Name,
			Quantity:      item.Quantity,
			ApprovedPrice: item.ApprovedPrice,
		})
	}

	if len(input.Schedule) > 0 {
		offer.Schedule = input.Schedule
	} else {
		offer.Schedule = domain.GenerateSchedule(
			input.TotalApprovedValue,
			request.RequestedDurationMonths,
			request.PaymentFrequency,
			now,
		)
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, wrapRepoError(err)
	}

	err = s.requestRepo.UpdateStatus(ctx, requestID, repository.StatusUpdate{
		ExpectedStatus: request.Status,
		NewStatus:      domain.RequestStatusWaitingCustomerOnSupplierOffer,
	})
	if err != nil {
		return nil, wrapRepoError(err)
	}

	s.invalidate(ctx, requestID)
	offerID := offer.ID
	s.events.Publish(ctx, Event{Type: EventOfferCreated, RequestID: requestID, OfferID: &offerID, At: now})

	return offer, nil
}

// CustomerOfferResponse records the customer's accept or reject
// decision. The dual write (offer status plus request status) is a
// single store transaction; a crash or a racing response can never
// leave an accepted offer pointing at an undecided request.
func (s *InstallmentService) CustomerOfferResponse(ctx context.Context, offerID, actingCustomerID uuid.UUID, accept bool) (*domain.InstallmentOffer, *domain.InstallmentRequest, error) {
	offer, err := s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}

	request, err := s.requestRepo.FindByID(ctx, offer.RequestID)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}

	if request.CustomerID != actingCustomerID {
		return nil, nil, customError.WrapForbidden("respond to an offer on another customer's request")
	}

	target := domain.RequestStatusWaitingSupplierOffers
	if accept {
		target = domain.RequestStatusActiveContract
	}
	if offer.Status != domain.OfferStatusWaitingForCustomer || !domain.CanTransition(request.Status, target) {
		return nil, nil, customError.WrapInvalidTransition(string(request.Status), string(target))
	}

	if err := s.offerRepo.RespondToOffer(ctx, offerID, accept, s.now()); err != nil {
		return nil, nil, wrapRepoError(err)
	}

	s.invalidate(ctx, offer.RequestID)

	eventType := EventOfferRejected
	if accept {
		eventType = EventOfferAccepted
	}
	id := offerID
	s.events.Publish(ctx, Event{Type: eventType, RequestID: offer.RequestID, OfferID: &id, At: s.now()})

	offer, err = s.offerRepo.FindByID(ctx, offerID)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}
	request, err = s.requestRepo.FindByID(ctx, offer.RequestID)
	if err != nil {
		return nil, nil, wrapRepoError(err)
	}
	return offer, request, nil
}

// Cancel lets the owning customer withdraw a request that has not yet
// become a contract.
func (s *InstallmentService) Cancel(ctx context.Context, requestID, actingCustomerID uuid.UUID, reason string) (*domain.InstallmentRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	if request.CustomerID != actingCustomerID {
		return nil, customError.WrapForbidden("cancel another customer's request")
	}

	return s.terminate(ctx, request, domain.RequestStatusCancelled, reason, EventRequestCancelled)
}

// Close terminates a request administratively, from any non-terminal
// state.
func (s *InstallmentService) Close(ctx context.Context, requestID uuid.UUID, reason string) (*domain.InstallmentRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	return s.terminate(ctx, request, domain.RequestStatusClosed, reason, EventRequestClosed)
}

// Complete marks an active contract as fully paid out.
func (s *InstallmentService) Complete(ctx context.Context, requestID uuid.UUID) (*domain.InstallmentRequest, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRepoError(err)
	}

	return s.terminate(ctx, request, domain.RequestStatusCompleted, "", EventRequestCompleted)
}

func (s *InstallmentService) terminate(ctx context.Context, request *domain.InstallmentRequest, target domain.RequestStatus, reason string, eventType EventType) (*domain.InstallmentRequest, error) {
	if !domain.CanTransition(request.Status, target) {
		return nil, customError.WrapInvalidTransition(string(request.Status), string(target))
	}

	now := s.now()
	update := repository.StatusUpdate{
		ExpectedStatus: request.Status,
		NewStatus:      target,
	}
	if target == domain.RequestStatusCancelled || target == domain.RequestStatusClosed {
		update.ClosedAt = &now
		if reason != "" {
			update.ClosedReason = &reason
		}
	}

	if err := s.requestRepo.UpdateStatus(ctx, request.ID, update); err != nil {
		return nil, wrapRepoError(err)
	}

	s.invalidate(ctx, request.ID)
	s.events.Publish(ctx, Event{Type: eventType, RequestID: request.ID, At: now})

	updated, err := s.requestRepo.FindByID(ctx, request.ID)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return updated, nil
}

// GetSettings returns the current policy record.
func (s *InstallmentService) GetSettings(ctx context.Context) (*domain.InstallmentSettings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return settings, nil
}

// UpdateSettings overwrites the policy record. Administrative only;
// callers are authorized upstream.
func (s *InstallmentService) UpdateSettings(ctx context.Context, input *domain.UpdateSettingsInput) (*domain.InstallmentSettings, error) {
	if input.MaxInstallmentValue.LessThan(input.MinInstallmentValue) {
		return nil, customError.WrapValueOutOfRange(
			input.MaxInstallmentValue.String(),
			input.MinInstallmentValue.String(),
			input.MaxInstallmentValue.String(),
		)
	}
	if input.MaxDurationMonths < input.MinDurationMonths {
		return nil, customError.WrapDurationOutOfRange(
			input.MaxDurationMonths,
			input.MinDurationMonths,
			input.MaxDurationMonths,
		)
	}

	settings := &domain.InstallmentSettings{
		Key:                 domain.SettingsKeyGlobal,
		EnableInstallments:  input.EnableInstallments,
		MinInstallmentValue: input.MinInstallmentValue,
		MaxInstallmentValue: input.MaxInstallmentValue,
		MinDurationMonths:   input.MinDurationMonths,
		MaxDurationMonths:   input.MaxDurationMonths,
		AllowSupplierOffers: input.AllowSupplierOffers,
	}

	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, wrapRepoError(err)
	}

	return s.settingsRepo.Get(ctx)
}

func (s *InstallmentService) invalidate(ctx context.Context, requestID uuid.UUID) {
	if s.redis == nil {
		return
	}
	// Cache invalidation failures are not fatal; entries expire anyway.
	s.redis.Del(ctx, requestCacheKey(requestID))
}

func requestCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("installments:request:%s", id)
}

// wrapRepoError keeps domain errors from the stores intact and wraps
// everything else as a database failure.
func wrapRepoError(err error) error {
	var businessErr *customError.BusinessError
	if errors.As(err, &businessErr) {
		return err
	}
	return customError.WrapDatabaseError(err)
}
