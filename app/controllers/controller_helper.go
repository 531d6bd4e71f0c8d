package controllers

import (
	"context"
	"strings"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/database"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/mail"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopify"
	"github.com/gofiber/fiber/v2"
)

// billingGateway is the slice of the platform admin client the billing
// handlers depend on.
type billingGateway interface {
	ActiveSubscriptions(ctx context.Context) ([]shopify.RemoteSubscription, error)
	CreateSubscription(ctx context.Context, name string, price float64, returnURL string, test bool) (string, error)
	CancelSubscription(ctx context.Context, id string) error
}

// billingService wires the reconciliation service with the SMTP notifier.
func billingService() *billing.Service {
	return billing.NewServiceFromDB(database.GetDB(), mail.NewBillingNotifier())
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
