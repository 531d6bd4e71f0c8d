package billing

import "strings"

// Plan identifiers offered by the app.
const (
	PlanBasic    = "basic"
	PlanPro      = "pro"
	PlanBusiness = "business"
)

// CatalogPlan is one entry of the static plan catalog.
type CatalogPlan struct {
	ID          string
	DisplayName string
	Price       float64
	Features    []string
}

// catalog is the single source of truth for plan names and monthly prices.
// Client-submitted plan/price pairs are validated against it before any
// remote call (Invariant: prices are never trusted from form data).
var catalog = []CatalogPlan{
	{
		ID:          PlanBasic,
		DisplayName: "Basic",
		Price:       10,
		Features:    []string{"Basic features", "Email support", "Standard analytics"},
	},
	{
		ID:          PlanPro,
		DisplayName: "Pro",
		Price:       20,
		Features:    []string{"All Basic features", "Priority support", "Advanced analytics", "API access"},
	},
	{
		ID:          PlanBusiness,
		DisplayName: "Business",
		Price:       30,
		Features:    []string{"All Pro features", "24/7 support", "Custom integrations", "White-label options"},
	},
}

// Plans returns the catalog in display order.
func Plans() []CatalogPlan {
	out := make([]CatalogPlan, len(catalog))
	copy(out, catalog)
	return out
}

func lookupPlan(planID string) (CatalogPlan, bool) {
	id := strings.ToLower(strings.TrimSpace(planID))
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return CatalogPlan{}, false
}

// PriceOf returns the monthly price for a catalog plan.
func PriceOf(planID string) (float64, bool) {
	p, ok := lookupPlan(planID)
	return p.Price, ok
}

// DisplayNameOf returns the human name for a catalog plan.
func DisplayNameOf(planID string) (string, bool) {
	p, ok := lookupPlan(planID)
	return p.DisplayName, ok
}

// SubscriptionName builds the remote subscription display name for a plan,
// e.g. "pro" -> "Pro Plan".
func SubscriptionName(planID string) string {
	if name, ok := DisplayNameOf(planID); ok {
		return name + " Plan"
	}
	return strings.TrimSpace(planID)
}

// PlanFromSubscriptionName maps a vendor-supplied subscription display name
// back to a catalog identifier: lower-cased, trailing " plan" stripped,
// trimmed. Unrecognized names return the normalized string with ok=false so
// callers can store it verbatim and flag it instead of silently defaulting.
func PlanFromSubscriptionName(name string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.TrimSuffix(id, " plan")
	id = strings.TrimSpace(id)
	if _, ok := lookupPlan(id); ok {
		return id, true
	}
	return id, false
}

// ValidateSelection checks a merchant-chosen plan/price pair against the
// catalog. The submitted price must match the catalog price exactly.
func ValidateSelection(planID string, price float64) error {
	p, ok := lookupPlan(planID)
	if !ok {
		return ErrInvalidPlan
	}
	if p.Price != price {
		return ErrInvalidPlan
	}
	return nil
}
