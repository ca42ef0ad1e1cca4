package services

import "errors"

// Service-level error taxonomy. Routes map these onto HTTP status codes:
// validation → 400, authorization → 403, conflict → 409, not found → 404.
var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotParticipant means the actor is neither the customer nor the
	// assigned technician of the request.
	ErrNotParticipant = errors.New("actor is not a participant of this request")

	// ErrWrongActor means the actor's role may not perform this event.
	ErrWrongActor = errors.New("actor role may not perform this event")

	// ErrInvalidTransition means the (status, event) pair is not in the
	// transition table.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConflict means another actor transitioned the request first; the
	// write was rejected without mutating anything.
	ErrConflict = errors.New("request was modified concurrently")

	// ErrValidation covers bad parameters (empty text, price <= 0, rating
	// out of range, non-monotonic progress).
	ErrValidation = errors.New("validation failed")

	// ErrNoAgreedPrice means payment was attempted with no price on record.
	ErrNoAgreedPrice = errors.New("no agreed price set on request")

	// ErrAlreadyPaid means a duplicate payment attempt was rejected.
	ErrAlreadyPaid = errors.New("payment already completed")

	// ErrAlreadyReviewed means a second review for the same request was
	// rejected.
	ErrAlreadyReviewed = errors.New("review already exists for this request")
)
