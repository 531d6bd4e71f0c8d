package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
)

// HandleAPISubscription returns the calling shop's current subscription state.
func HandleAPISubscription(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)
	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub, err := svc.CurrentSubscription(ctx, shopDomain)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}
	if sub == nil {
		return c.JSON(fiber.Map{"shop_domain": shopDomain, "subscription": nil})
	}
	return c.JSON(fiber.Map{"shop_domain": shopDomain, "subscription": sub})
}

// HandleAPIPlans returns the public plan catalog.
func HandleAPIPlans(c *fiber.Ctx) error {
	plans := billing.Plans()
	out := make([]fiber.Map, 0, len(plans))
	for _, p := range plans {
		out = append(out, fiber.Map{
			"id":       p.ID,
			"name":     p.DisplayName,
			"price":    p.Price,
			"features": p.Features,
		})
	}
	return c.JSON(fiber.Map{"plans": out})
}
