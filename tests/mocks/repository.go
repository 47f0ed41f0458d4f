package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sinicar/installment-engine/internal/domain"
	"github.com/sinicar/installment-engine/internal/repository"
)

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, request *domain.InstallmentRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentRequest), args.Error(1)
}

func (m *MockRequestRepository) FindMany(ctx context.Context, filter domain.RequestFilter) ([]*domain.InstallmentRequest, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InstallmentRequest), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update repository.StatusUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockRequestRepository) SetForwardedSuppliers(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, supplierIDs []uuid.UUID) error {
	args := m.Called(ctx, id, expected, supplierIDs)
	return args.Error(0)
}

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) Create(ctx context.Context, offer *domain.InstallmentOffer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *MockOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InstallmentOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentOffer), args.Error(1)
}

func (m *MockOfferRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) ([]*domain.InstallmentOffer, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.InstallmentOffer), args.Error(1)
}

func (m *MockOfferRepository) RespondToOffer(ctx context.Context, offerID uuid.UUID, accept bool, respondedAt time.Time) error {
	args := m.Called(ctx, offerID, accept, respondedAt)
	return args.Error(0)
}

func (m *MockOfferRepository) MarkOverdueEntries(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*domain.InstallmentSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InstallmentSettings), args.Error(1)
}

func (m *MockSettingsRepository) Update(ctx context.Context, settings *domain.InstallmentSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}
