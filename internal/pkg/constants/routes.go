package constants

// Static route constants
const (
	PublicRoute         = "/"
	AppRoute            = "/app"
	PricingRoute        = "/app/pricing"
	BillingConfirmRoute = "/app/billing/confirm"
	BillingCancelRoute  = "/app/billing/cancel"
	WebhooksRoute       = "/webhooks"
)
