package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// EventType names a negotiation state change a downstream notification
// collaborator may want to act on.
type EventType string

const (
	EventRequestCreated   EventType = "REQUEST_CREATED"
	EventRequestReviewed  EventType = "REQUEST_REVIEWED"
	EventRequestForwarded EventType = "REQUEST_FORWARDED"
	EventOfferCreated     EventType = "OFFER_CREATED"
	EventOfferAccepted    EventType = "OFFER_ACCEPTED"
	EventOfferRejected    EventType = "OFFER_REJECTED"
	EventRequestCancelled EventType = "REQUEST_CANCELLED"
	EventRequestClosed    EventType = "REQUEST_CLOSED"
	EventRequestCompleted EventType = "REQUEST_COMPLETED"
)

// Event is emitted after a successful mutation. Delivery of actual
// notifications belongs to an external collaborator; the engine only
// says that something notification-worthy happened.
type Event struct {
	Type      EventType
	RequestID uuid.UUID
	OfferID   *uuid.UUID
	At        time.Time
}

// EventSink receives negotiation events. Publish must not block the
// calling operation; sinks that forward somewhere slow should buffer.
type EventSink interface {
	Publish(ctx context.Context, event Event)
}

// LogEventSink writes events to the process log. It is the default
// sink when no notification collaborator is wired in.
type LogEventSink struct{}

func (LogEventSink) Publish(_ context.Context, event Event) {
	if event.OfferID != nil {
		log.Printf("installment event %s request=%s offer=%s", event.Type, event.RequestID, *event.OfferID)
		return
	}
	log.Printf("installment event %s request=%s", event.Type, event.RequestID)
}
