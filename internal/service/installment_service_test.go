package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sinicar/installment-engine/internal/domain"
	"github.com/sinicar/installment-engine/internal/repository"
	customError "github.com/sinicar/installment-engine/pkg/errors"
	"github.com/sinicar/installment-engine/tests/mocks"
)

var fixedNow = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func newTestService(
	requestRepo repository.RequestRepository,
	offerRepo repository.OfferRepository,
	settingsRepo repository.SettingsRepository,
) *InstallmentService {
	return &InstallmentService{
		requestRepo:  requestRepo,
		offerRepo:    offerRepo,
		settingsRepo: settingsRepo,
		events:       LogEventSink{},
		now:          func() time.Time { return fixedNow },
	}
}

func enabledSettings() *domain.InstallmentSettings {
	return &domain.InstallmentSettings{
		Key:                 domain.SettingsKeyGlobal,
		EnableInstallments:  true,
		MinInstallmentValue: decimal.NewFromInt(1000),
		MaxInstallmentValue: decimal.NewFromInt(10000),
		MinDurationMonths:   1,
		MaxDurationMonths:   24,
		AllowSupplierOffers: true,
	}
}

func pendingRequest(customerID uuid.UUID) *domain.InstallmentRequest {
	return &domain.InstallmentRequest{
		ID:                      uuid.New(),
		CustomerID:              customerID,
		CustomerName:            "Oficina Central",
		TotalRequestedValue:     decimal.NewFromInt(6000),
		PaymentFrequency:        domain.FrequencyMonthly,
		RequestedDurationMonths: 6,
		Status:                  domain.RequestStatusPendingSinicarReview,
		SinicarDecision:         domain.DecisionPending,
	}
}

func TestCreateRequest_Success(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	settingsRepo := &mocks.MockSettingsRepository{}
	svc := newTestService(requestRepo, offerRepo, settingsRepo)

	settingsRepo.On("Get", mock.Anything).Return(enabledSettings(), nil)
	requestRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.InstallmentRequest) bool {
		return r.Status == domain.RequestStatusPendingSinicarReview &&
			r.SinicarDecision == domain.DecisionPending &&
			len(r.Items) == 2 &&
			r.Items[0].RequestID == r.ID
	})).Return(nil)

	customerID := uuid.New()
	input := &domain.CreateRequestInput{
		TotalRequestedValue:     decimal.NewFromInt(6000),
		PaymentFrequency:        domain.FrequencyMonthly,
		RequestedDurationMonths: 6,
		Items: []domain.CreateItemInput{
			{PartNumber: "BRK-1001", Name: "Brake disc", Quantity: 2, EstimatedPrice: decimal.NewFromInt(2000)},
			{PartNumber: "FLT-0230", Name: "Oil filter", Quantity: 4, EstimatedPrice: decimal.NewFromInt(500)},
		},
	}

	request, err := svc.CreateRequest(context.Background(), customerID, "Oficina Central", input)

	require.NoError(t, err)
	assert.Equal(t, customerID, request.CustomerID)
	assert.Equal(t, domain.RequestStatusPendingSinicarReview, request.Status)
	assert.Equal(t, fixedNow, request.CreatedAt)

	requestRepo.AssertExpectations(t)
	settingsRepo.AssertExpectations(t)
}

func TestCreateRequest_PolicyRejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.InstallmentSettings)
		value    decimal.Decimal
		duration int
		wantErr  error
	}{
		{
			name:     "feature disabled",
			mutate:   func(s *domain.InstallmentSettings) { s.EnableInstallments = false },
			value:    decimal.NewFromInt(6000),
			duration: 6,
			wantErr:  customError.ErrFeatureDisabled,
		},
		{
			name:     "value below minimum",
			value:    decimal.NewFromInt(999),
			duration: 6,
			wantErr:  customError.ErrValueOutOfRange,
		},
		{
			name:     "duration above maximum",
			value:    decimal.NewFromInt(6000),
			duration: 25,
			wantErr:  customError.ErrDurationOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestRepo := &mocks.MockRequestRepository{}
			settingsRepo := &mocks.MockSettingsRepository{}
			svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, settingsRepo)

			settings := enabledSettings()
			if tt.mutate != nil {
				tt.mutate(settings)
			}
			settingsRepo.On("Get", mock.Anything).Return(settings, nil)

			input := &domain.CreateRequestInput{
				TotalRequestedValue:     tt.value,
				PaymentFrequency:        domain.FrequencyMonthly,
				RequestedDurationMonths: tt.duration,
				Items: []domain.CreateItemInput{
					{PartNumber: "BRK-1001", Name: "Brake disc", Quantity: 1, EstimatedPrice: tt.value},
				},
			}

			_, err := svc.CreateRequest(context.Background(), uuid.New(), "Oficina", input)

			assert.ErrorIs(t, err, tt.wantErr)
			requestRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAdminReview_Approve(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

	customerID := uuid.New()
	reviewerID := uuid.New()
	request := pendingRequest(customerID)

	reviewed := *request
	reviewed.Status = domain.RequestStatusWaitingCustomerOnPartialSinicar
	reviewed.SinicarDecision = domain.DecisionApprovedFull

	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
	requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.ExpectedStatus == domain.RequestStatusPendingSinicarReview &&
			u.NewStatus == domain.RequestStatusWaitingCustomerOnPartialSinicar &&
			u.SinicarDecision != nil && *u.SinicarDecision == domain.DecisionApprovedFull &&
			u.ReviewedBy != nil && *u.ReviewedBy == reviewerID &&
			u.AllowedForSuppliers != nil && *u.AllowedForSuppliers
	})).Return(nil)
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(&reviewed, nil).Once()

	result, err := svc.AdminReview(context.Background(), request.ID, reviewerID, &domain.ReviewInput{
		Decision:            domain.DecisionApprovedFull,
		Notes:               "approved in full",
		AllowedForSuppliers: true,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusWaitingCustomerOnPartialSinicar, result.Status)
	requestRepo.AssertExpectations(t)
}

func TestAdminReview_Reject(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	rejected := *request
	rejected.Status = domain.RequestStatusRejectedBySinicar

	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
	requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.NewStatus == domain.RequestStatusRejectedBySinicar
	})).Return(nil)
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(&rejected, nil).Once()

	result, err := svc.AdminReview(context.Background(), request.ID, uuid.New(), &domain.ReviewInput{
		Decision: domain.DecisionRejected,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejectedBySinicar, result.Status)
}

func TestAdminReview_OnlyLegalWhilePending(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	request.Status = domain.RequestStatusActiveContract
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

	_, err := svc.AdminReview(context.Background(), request.ID, uuid.New(), &domain.ReviewInput{
		Decision: domain.DecisionApprovedFull,
	})

	assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	requestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestForwardToSuppliers(t *testing.T) {
	supplierIDs := []uuid.UUID{uuid.New(), uuid.New()}

	t.Run("globally disabled", func(t *testing.T) {
		settingsRepo := &mocks.MockSettingsRepository{}
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, settingsRepo)

		settings := enabledSettings()
		settings.AllowSupplierOffers = false
		settingsRepo.On("Get", mock.Anything).Return(settings, nil)

		_, err := svc.ForwardToSuppliers(context.Background(), uuid.New(), supplierIDs)

		assert.ErrorIs(t, err, customError.ErrNotAllowedForSuppliers)
		requestRepo.AssertNotCalled(t, "SetForwardedSuppliers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reviewer gate not set", func(t *testing.T) {
		settingsRepo := &mocks.MockSettingsRepository{}
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, settingsRepo)

		request := pendingRequest(uuid.New())
		request.Status = domain.RequestStatusWaitingCustomerOnPartialSinicar
		request.AllowedForSuppliers = false

		settingsRepo.On("Get", mock.Anything).Return(enabledSettings(), nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

		_, err := svc.ForwardToSuppliers(context.Background(), request.ID, supplierIDs)

		assert.ErrorIs(t, err, customError.ErrNotAllowedForSuppliers)
	})

	t.Run("illegal from pending review", func(t *testing.T) {
		settingsRepo := &mocks.MockSettingsRepository{}
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, settingsRepo)

		request := pendingRequest(uuid.New())
		request.AllowedForSuppliers = true

		settingsRepo.On("Get", mock.Anything).Return(enabledSettings(), nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

		_, err := svc.ForwardToSuppliers(context.Background(), request.ID, supplierIDs)

		assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	})

	t.Run("success", func(t *testing.T) {
		settingsRepo := &mocks.MockSettingsRepository{}
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, settingsRepo)

		request := pendingRequest(uuid.New())
		request.Status = domain.RequestStatusWaitingCustomerOnPartialSinicar
		request.AllowedForSuppliers = true

		forwarded := *request
		forwarded.Status = domain.RequestStatusForwardedToSuppliers
		forwarded.ForwardedSupplierIDs = supplierIDs

		settingsRepo.On("Get", mock.Anything).Return(enabledSettings(), nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
		requestRepo.On("SetForwardedSuppliers", mock.Anything, request.ID,
			domain.RequestStatusWaitingCustomerOnPartialSinicar, supplierIDs).Return(nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(&forwarded, nil).Once()

		result, err := svc.ForwardToSuppliers(context.Background(), request.ID, supplierIDs)

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusForwardedToSuppliers, result.Status)
		assert.Equal(t, supplierIDs, result.ForwardedSupplierIDs)
		requestRepo.AssertExpectations(t)
	})
}

func TestCreateOffer_GeneratesScheduleWhenAbsent(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	request.Status = domain.RequestStatusWaitingSupplierOffers

	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)
	offerRepo.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.InstallmentOffer) bool {
		if len(o.Schedule) != 6 || o.Status != domain.OfferStatusWaitingForCustomer {
			return false
		}
		for _, entry := range o.Schedule {
			if !entry.Amount.Equal(decimal.NewFromInt(1000)) {
				return false
			}
		}
		return o.SourceType == domain.SourceSinicar
	})).Return(nil)
	requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.ExpectedStatus == domain.RequestStatusWaitingSupplierOffers &&
			u.NewStatus == domain.RequestStatusWaitingCustomerOnSupplierOffer
	})).Return(nil)

	offer, err := svc.CreateOffer(context.Background(), request.ID,
		domain.OfferCreator{SourceType: domain.SourceSinicar},
		&domain.CreateOfferInput{
			Type:               domain.OfferTypeFull,
			TotalApprovedValue: decimal.NewFromInt(6000),
		})

	require.NoError(t, err)
	assert.Len(t, offer.Schedule, 6)
	offerRepo.AssertExpectations(t)
	requestRepo.AssertExpectations(t)
}

func TestCreateOffer_KeepsExplicitSchedule(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	request.Status = domain.RequestStatusForwardedToSuppliers

	explicit := []domain.PaymentEntry{
		{PaymentNumber: 1, DueDate: fixedNow.AddDate(0, 1, 0), Amount: decimal.NewFromInt(3000), Status: domain.EntryStatusPending},
		{PaymentNumber: 2, DueDate: fixedNow.AddDate(0, 2, 0), Amount: decimal.NewFromInt(3000), Status: domain.EntryStatusPending},
	}

	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)
	offerRepo.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.InstallmentOffer) bool {
		return len(o.Schedule) == 2 && o.SourceType == domain.SourceSupplier && o.SupplierID != nil
	})).Return(nil)
	requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.Anything).Return(nil)

	supplierID := uuid.New()
	supplierName := "AutoPecas Sul"
	offer, err := svc.CreateOffer(context.Background(), request.ID,
		domain.OfferCreator{SourceType: domain.SourceSupplier, SupplierID: &supplierID, SupplierName: &supplierName},
		&domain.CreateOfferInput{
			Type:               domain.OfferTypeFull,
			TotalApprovedValue: decimal.NewFromInt(6000),
			Schedule:           explicit,
		})

	require.NoError(t, err)
	assert.Equal(t, explicit, offer.Schedule)
}

func TestCreateOffer_IllegalState(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	request.Status = domain.RequestStatusActiveContract
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

	_, err := svc.CreateOffer(context.Background(), request.ID,
		domain.OfferCreator{SourceType: domain.SourceSinicar},
		&domain.CreateOfferInput{Type: domain.OfferTypeFull, TotalApprovedValue: decimal.NewFromInt(6000)})

	assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	offerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func waitingOffer(requestID uuid.UUID) *domain.InstallmentOffer {
	return &domain.InstallmentOffer{
		ID:                 uuid.New(),
		RequestID:          requestID,
		SourceType:         domain.SourceSinicar,
		Type:               domain.OfferTypeFull,
		TotalApprovedValue: decimal.NewFromInt(6000),
		Status:             domain.OfferStatusWaitingForCustomer,
	}
}

func TestCustomerOfferResponse_Forbidden(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	owner := uuid.New()
	request := pendingRequest(owner)
	request.Status = domain.RequestStatusWaitingCustomerOnSupplierOffer
	offer := waitingOffer(request.ID)

	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(offer, nil)
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

	_, _, err := svc.CustomerOfferResponse(context.Background(), offer.ID, uuid.New(), true)

	assert.ErrorIs(t, err, customError.ErrForbidden)
	offerRepo.AssertNotCalled(t, "RespondToOffer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerOfferResponse_Accept(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	owner := uuid.New()
	request := pendingRequest(owner)
	request.Status = domain.RequestStatusWaitingCustomerOnSupplierOffer
	offer := waitingOffer(request.ID)

	accepted := *offer
	accepted.Status = domain.OfferStatusAcceptedByCustomer
	active := *request
	active.Status = domain.RequestStatusActiveContract
	active.AcceptedOfferID = &offer.ID

	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(offer, nil).Once()
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
	offerRepo.On("RespondToOffer", mock.Anything, offer.ID, true, fixedNow).Return(nil)
	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(&accepted, nil).Once()
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(&active, nil).Once()

	resultOffer, resultRequest, err := svc.CustomerOfferResponse(context.Background(), offer.ID, owner, true)

	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAcceptedByCustomer, resultOffer.Status)
	assert.Equal(t, domain.RequestStatusActiveContract, resultRequest.Status)
	require.NotNil(t, resultRequest.AcceptedOfferID)
	assert.Equal(t, offer.ID, *resultRequest.AcceptedOfferID)
	offerRepo.AssertExpectations(t)
}

func TestCustomerOfferResponse_RejectReopensNegotiation(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	owner := uuid.New()
	request := pendingRequest(owner)
	request.Status = domain.RequestStatusWaitingCustomerOnSupplierOffer
	offer := waitingOffer(request.ID)

	rejected := *offer
	rejected.Status = domain.OfferStatusRejectedByCustomer
	reopened := *request
	reopened.Status = domain.RequestStatusWaitingSupplierOffers

	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(offer, nil).Once()
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
	offerRepo.On("RespondToOffer", mock.Anything, offer.ID, false, fixedNow).Return(nil)
	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(&rejected, nil).Once()
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(&reopened, nil).Once()

	resultOffer, resultRequest, err := svc.CustomerOfferResponse(context.Background(), offer.ID, owner, false)

	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusRejectedByCustomer, resultOffer.Status)
	assert.Equal(t, domain.RequestStatusWaitingSupplierOffers, resultRequest.Status)
	assert.Nil(t, resultRequest.AcceptedOfferID)
}

func TestCustomerOfferResponse_AlreadyResponded(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	offerRepo := &mocks.MockOfferRepository{}
	svc := newTestService(requestRepo, offerRepo, &mocks.MockSettingsRepository{})

	owner := uuid.New()
	request := pendingRequest(owner)
	request.Status = domain.RequestStatusActiveContract
	offer := waitingOffer(request.ID)
	offer.Status = domain.OfferStatusAcceptedByCustomer

	offerRepo.On("FindByID", mock.Anything, offer.ID).Return(offer, nil)
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

	_, _, err := svc.CustomerOfferResponse(context.Background(), offer.ID, owner, false)

	assert.ErrorIs(t, err, customError.ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	t.Run("only the owner may cancel", func(t *testing.T) {
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

		request := pendingRequest(uuid.New())
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

		_, err := svc.Cancel(context.Background(), request.ID, uuid.New(), "changed my mind")

		assert.ErrorIs(t, err, customError.ErrForbidden)
	})

	t.Run("active contract cannot be cancelled", func(t *testing.T) {
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

		owner := uuid.New()
		request := pendingRequest(owner)
		request.Status = domain.RequestStatusActiveContract
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

		_, err := svc.Cancel(context.Background(), request.ID, owner, "too late")

		assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	})

	t.Run("success stamps reason and time", func(t *testing.T) {
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

		owner := uuid.New()
		request := pendingRequest(owner)
		cancelled := *request
		cancelled.Status = domain.RequestStatusCancelled

		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
		requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.MatchedBy(func(u repository.StatusUpdate) bool {
			return u.NewStatus == domain.RequestStatusCancelled &&
				u.ClosedReason != nil && *u.ClosedReason == "found a better deal" &&
				u.ClosedAt != nil && u.ClosedAt.Equal(fixedNow)
		})).Return(nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(&cancelled, nil).Once()

		result, err := svc.Cancel(context.Background(), request.ID, owner, "found a better deal")

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusCancelled, result.Status)
	})
}

func TestComplete(t *testing.T) {
	t.Run("only legal from active contract", func(t *testing.T) {
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

		request := pendingRequest(uuid.New())
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

		_, err := svc.Complete(context.Background(), request.ID)

		assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	})

	t.Run("success", func(t *testing.T) {
		requestRepo := &mocks.MockRequestRepository{}
		svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

		request := pendingRequest(uuid.New())
		request.Status = domain.RequestStatusActiveContract
		completed := *request
		completed.Status = domain.RequestStatusCompleted

		requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil).Once()
		requestRepo.On("UpdateStatus", mock.Anything, request.ID, mock.MatchedBy(func(u repository.StatusUpdate) bool {
			return u.NewStatus == domain.RequestStatusCompleted && u.ClosedReason == nil
		})).Return(nil)
		requestRepo.On("FindByID", mock.Anything, request.ID).Return(&completed, nil).Once()

		result, err := svc.Complete(context.Background(), request.ID)

		require.NoError(t, err)
		assert.Equal(t, domain.RequestStatusCompleted, result.Status)
	})
}

func TestClose_FromTerminalFails(t *testing.T) {
	requestRepo := &mocks.MockRequestRepository{}
	svc := newTestService(requestRepo, &mocks.MockOfferRepository{}, &mocks.MockSettingsRepository{})

	request := pendingRequest(uuid.New())
	request.Status = domain.RequestStatusCompleted
	requestRepo.On("FindByID", mock.Anything, request.ID).Return(request, nil)

	_, err := svc.Close(context.Background(), request.ID, "cleanup")

	assert.ErrorIs(t, err, customError.ErrInvalidTransition)
	requestRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateSettings_Validation(t *testing.T) {
	settingsRepo := &mocks.MockSettingsRepository{}
	svc := newTestService(&mocks.MockRequestRepository{}, &mocks.MockOfferRepository{}, settingsRepo)

	_, err := svc.UpdateSettings(context.Background(), &domain.UpdateSettingsInput{
		EnableInstallments:  true,
		MinInstallmentValue: decimal.NewFromInt(5000),
		MaxInstallmentValue: decimal.NewFromInt(1000),
		MinDurationMonths:   1,
		MaxDurationMonths:   12,
	})
	assert.ErrorIs(t, err, customError.ErrValueOutOfRange)

	_, err = svc.UpdateSettings(context.Background(), &domain.UpdateSettingsInput{
		EnableInstallments:  true,
		MinInstallmentValue: decimal.NewFromInt(1000),
		MaxInstallmentValue: decimal.NewFromInt(5000),
		MinDurationMonths:   12,
		MaxDurationMonths:   3,
	})
	assert.ErrorIs(t, err, customError.ErrDurationOutOfRange)

	settingsRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
