package billing

import "errors"

var (
	// ErrInvalidObservation is returned when an observation carries an empty
	// status and there is no existing row to fall back to.
	ErrInvalidObservation = errors.New("billing: invalid observation")

	// ErrInvalidPlan is returned when a client-selected plan or price fails
	// catalog validation.
	ErrInvalidPlan = errors.New("billing: invalid plan or price")

	// ErrShopNotFound is returned when an observation references a shop
	// domain that has never been registered.
	ErrShopNotFound = errors.New("billing: shop not found")

	// ErrNoActiveSubscription is returned by the cancel command when the
	// billing platform reports no active subscription.
	ErrNoActiveSubscription = errors.New("billing: no active subscription found")
)
