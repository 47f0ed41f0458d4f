package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type edge struct {
	from RequestStatus
	to   RequestStatus
}

// legalEdges mirrors the negotiation state machine. Keeping the list
// here, independent of the production table, makes the totality test
// meaningful: every pair outside this list must be refused.
var legalEdges = map[edge]bool{
	{RequestStatusPendingSinicarReview, RequestStatusWaitingCustomerOnPartialSinicar}: true,
	{RequestStatusPendingSinicarReview, RequestStatusRejectedBySinicar}:               true,
	{RequestStatusPendingSinicarReview, RequestStatusCancelled}:                       true,
	{RequestStatusPendingSinicarReview, RequestStatusClosed}:                          true,

	{RequestStatusWaitingCustomerOnPartialSinicar, RequestStatusForwardedToSuppliers}:          true,
	{RequestStatusWaitingCustomerOnPartialSinicar, RequestStatusWaitingCustomerOnSupplierOffer}: true,
	{RequestStatusWaitingCustomerOnPartialSinicar, RequestStatusCancelled}:                      true,
	{RequestStatusWaitingCustomerOnPartialSinicar, RequestStatusClosed}:                         true,

	{RequestStatusWaitingSupplierOffers, RequestStatusForwardedToSuppliers}:          true,
	{RequestStatusWaitingSupplierOffers, RequestStatusWaitingCustomerOnSupplierOffer}: true,
	{RequestStatusWaitingSupplierOffers, RequestStatusCancelled}:                      true,
	{RequestStatusWaitingSupplierOffers, RequestStatusClosed}:                         true,

	{RequestStatusForwardedToSuppliers, RequestStatusWaitingCustomerOnSupplierOffer}: true,
	{RequestStatusForwardedToSuppliers, RequestStatusCancelled}:                      true,
	{RequestStatusForwardedToSuppliers, RequestStatusClosed}:                         true,

	{RequestStatusWaitingCustomerOnSupplierOffer, RequestStatusActiveContract}:        true,
	{RequestStatusWaitingCustomerOnSupplierOffer, RequestStatusWaitingSupplierOffers}: true,
	{RequestStatusWaitingCustomerOnSupplierOffer, RequestStatusCancelled}:             true,
	{RequestStatusWaitingCustomerOnSupplierOffer, RequestStatusClosed}:                true,

	{RequestStatusActiveContract, RequestStatusCompleted}: true,
	{RequestStatusActiveContract, RequestStatusClosed}:    true,
}

func TestCanTransition_Totality(t *testing.T) {
	statuses := AllRequestStatuses()
	assert.Len(t, statuses, 10)

	for _, from := range statuses {
		for _, to := range statuses {
			expected := legalEdges[edge{from, to}]
			assert.Equal(t, expected, CanTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[RequestStatus]bool{
		RequestStatusCompleted:         true,
		RequestStatusCancelled:         true,
		RequestStatusClosed:            true,
		RequestStatusRejectedBySinicar: true,
	}

	for _, status := range AllRequestStatuses() {
		assert.Equal(t, terminal[status], IsTerminal(status), "status %s", status)
	}
}

func TestTerminalStatesRefuseEverything(t *testing.T) {
	for _, from := range AllRequestStatuses() {
		if !IsTerminal(from) {
			continue
		}
		for _, to := range AllRequestStatuses() {
			assert.False(t, CanTransition(from, to),
				"terminal %s must refuse transition to %s", from, to)
		}
	}
}

func TestCancelNotLegalFromActiveContract(t *testing.T) {
	assert.False(t, CanTransition(RequestStatusActiveContract, RequestStatusCancelled))
	assert.True(t, CanTransition(RequestStatusActiveContract, RequestStatusClosed))
	assert.True(t, CanTransition(RequestStatusActiveContract, RequestStatusCompleted))
}
