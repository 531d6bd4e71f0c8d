package controllers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/cache"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/database"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/flash"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopify"
)

// subscriptionSyncWindow throttles pull-path calls to the billing platform.
const subscriptionSyncWindow = 5 * time.Minute

// HandleDashboard renders the embedded dashboard. Loading it is the pull
// entry point of subscription reconciliation: a pending row left by a
// verified webhook is promoted first, then the billing platform's active
// subscriptions are fetched and folded into local state. An empty remote
// answer changes nothing; absence of data is not evidence of cancellation.
func HandleDashboard(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)
	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if _, err := svc.PromotePendingSubscription(ctx, shopDomain); err != nil {
		log.Printf("Failed to promote pending subscription for %s: %v", shopDomain, err)
	}

	if !cache.SubscriptionRecentlySynced(shopDomain) {
		var shop models.Shop
		if err := database.GetDB().Where("domain = ?", shopDomain).First(&shop).Error; err != nil {
			log.Printf("Failed to load shop %s: %v", shopDomain, err)
		} else if err := syncRemoteSubscriptions(ctx, svc, shopify.NewAdminClient(shop.Domain, shop.AccessToken), shopDomain); err != nil {
			log.Printf("Remote subscription sync failed for %s: %v", shopDomain, err)
		} else {
			cache.MarkSubscriptionSynced(shopDomain, subscriptionSyncWindow)
		}
	}

	sub, err := svc.CurrentSubscription(ctx, shopDomain)
	if err != nil {
		log.Printf("Failed to load subscription for %s: %v", shopDomain, err)
	}

	data := fiber.Map{
		"Title":      "Dashboard",
		"ShopDomain": shopDomain,
		"Flash":      flash.Get(c),
	}
	if sub != nil {
		planName, ok := billing.DisplayNameOf(sub.Plan)
		if !ok {
			planName = sub.Plan
		}
		data["Subscription"] = sub
		data["PlanName"] = planName
		data["IsLive"] = sub.IsLive()
	}
	return c.Render("dashboard", data)
}

// syncRemoteSubscriptions pulls the platform's active subscriptions for the
// shop and reconciles the first one. A shop carries at most one live charge,
// so later entries are stale remnants and are ignored. Remote statuses
// arrive upper-case and are lowered before entering the state machine.
func syncRemoteSubscriptions(ctx context.Context, svc *billing.Service, gw billingGateway, shopDomain string) error {
	remote, err := gw.ActiveSubscriptions(ctx)
	if err != nil {
		return err
	}
	if len(remote) == 0 {
		// Absence of remote data is not evidence of cancellation.
		return nil
	}

	r := remote[0]
	plan, known := billing.PlanFromSubscriptionName(r.Name)
	if !known {
		log.Printf("Unrecognized remote plan name %q for %s", r.Name, shopDomain)
	}
	obs := billing.Observation{
		Source:               billing.SourcePull,
		Status:               strings.ToLower(r.Status),
		Plan:                 plan,
		SourceSubscriptionID: r.ID,
	}
	if r.Price > 0 {
		price := r.Price
		obs.Price = &price
	}
	_, err = svc.Reconcile(ctx, shopDomain, obs)
	return err
}
