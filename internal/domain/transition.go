package domain

// transitions is the single source of truth for the request state
// machine. Every mutation in the negotiation engine consults it; a
// (from, to) pair missing here is an invalid transition, no exceptions.
var transitions = map[RequestStatus][]RequestStatus{
	RequestStatusPendingSinicarReview: {
		RequestStatusWaitingCustomerOnPartialSinicar, // reviewer approves (full or partial)
		RequestStatusRejectedBySinicar,
		RequestStatusCancelled,
		RequestStatusClosed,
	},
	RequestStatusWaitingCustomerOnPartialSinicar: {
		RequestStatusForwardedToSuppliers,
		RequestStatusWaitingCustomerOnSupplierOffer, // SINICAR offer created directly
		RequestStatusCancelled,
		RequestStatusClosed,
	},
	RequestStatusWaitingSupplierOffers: {
		RequestStatusForwardedToSuppliers,
		RequestStatusWaitingCustomerOnSupplierOffer,
		RequestStatusCancelled,
		RequestStatusClosed,
	},
	RequestStatusForwardedToSuppliers: {
		RequestStatusWaitingCustomerOnSupplierOffer,
		RequestStatusCancelled,
		RequestStatusClosed,
	},
	RequestStatusWaitingCustomerOnSupplierOffer: {
		RequestStatusActiveContract,
		RequestStatusWaitingSupplierOffers, // offer rejected, negotiation re-opens
		RequestStatusCancelled,
		RequestStatusClosed,
	},
	RequestStatusActiveContract: {
		RequestStatusCompleted,
		RequestStatusClosed,
	},
	// Terminal states have no outgoing edges.
	RequestStatusCompleted:         {},
	RequestStatusCancelled:         {},
	RequestStatusClosed:            {},
	RequestStatusRejectedBySinicar: {},
}

// CanTransition reports whether the state machine permits moving a
// request from one status to another.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from s.
func IsTerminal(s RequestStatus) bool {
	return len(transitions[s]) == 0
}

// AllRequestStatuses lists every request status token, for validation
// and exhaustive state-machine tests.
func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusPendingSinicarReview,
		RequestStatusWaitingCustomerOnPartialSinicar,
		RequestStatusForwardedToSuppliers,
		RequestStatusWaitingSupplierOffers,
		RequestStatusWaitingCustomerOnSupplierOffer,
		RequestStatusActiveContract,
		RequestStatusCompleted,
		RequestStatusCancelled,
		RequestStatusClosed,
		RequestStatusRejectedBySinicar,
	}
}
