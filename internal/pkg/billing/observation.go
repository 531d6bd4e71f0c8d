package billing

// Observation sources. The source decides how an unknown shop domain is
// handled: push observations require a registered shop, confirmation
// observations may create one with a placeholder credential.
const (
	SourcePull    = "pull"
	SourcePush    = "push"
	SourceCommand = "command"
	SourceConfirm = "confirm"
)

// Notification event kinds dispatched after successful state transitions.
const (
	EventWelcome      = "welcome"
	EventCancellation = "cancellation"
	EventExpiration   = "expiration"
)

// Observation is a normalized report of billing status from any producer:
// the dashboard pull query, a verified webhook delivery, or the outcome of a
// subscribe/cancel command. Plan and price are optional; when absent they are
// re-derived from the catalog or carried over from the existing row.
type Observation struct {
	Source               string
	Status               string
	Plan                 string
	Price                *float64
	SourceSubscriptionID string
}

// Notifier sends a best-effort transactional email for a billing event.
// Failures must never roll back or block a reconciliation.
type Notifier interface {
	Notify(shopDomain, event, plan string, price float64) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, string, float64) error { return nil }
