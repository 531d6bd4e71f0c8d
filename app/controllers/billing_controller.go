package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/cache"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/database"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
	appflash "github.com/StorePlanHQ/StorePlan/internal/pkg/flash"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopify"
)

// PlanSelectionRequest is the subscribe form payload. The price is submitted
// for display confirmation only and is re-checked against the catalog; it is
// never forwarded as-is to the billing platform.
type PlanSelectionRequest struct {
	Plan  string  `json:"plan" form:"plan" validate:"required,min=1,max=50"`
	Price float64 `json:"price" form:"price" validate:"gte=0"`
}

func (r *PlanSelectionRequest) Validate() error {
	v := validator.New()
	return v.Struct(r)
}

// HandlePricing renders the plan selection page.
func HandlePricing(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)
	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub, err := svc.CurrentSubscription(ctx, shopDomain)
	if err != nil && !errors.Is(err, billing.ErrShopNotFound) {
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load subscription")
	}

	data := fiber.Map{
		"Title":      "Pricing",
		"ShopDomain": shopDomain,
		"Plans":      billing.Plans(),
		"Flash":      appflash.Get(c),
	}
	if sub != nil {
		data["CurrentPlan"] = sub.Plan
		data["CurrentStatus"] = sub.Status
	}
	return c.Render("pricing", data)
}

// HandleSubscribe starts a subscription for the selected plan. The catalog
// check runs before any remote call so an invalid plan never reaches the
// billing platform. On success the merchant is handed the platform's
// confirmation URL; no local row is written until the platform confirms the
// charge through a webhook, the confirmation return, or the dashboard pull.
func HandleSubscribe(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)

	var req PlanSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	plan := strings.ToLower(strings.TrimSpace(req.Plan))
	if err := billing.ValidateSelection(plan, req.Price); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_plan"})
	}

	var shop models.Shop
	if err := database.GetDB().Where("domain = ?", shopDomain).First(&shop).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "shop_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	returnURL := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/") + "/app/billing/confirm"
	client := shopify.NewAdminClient(shop.Domain, shop.AccessToken)
	confirmationURL, err := startSubscription(ctx, client, plan, returnURL, env.IsDev())
	if err != nil {
		var gwErr *shopify.GatewayError
		if errors.As(err, &gwErr) && len(gwErr.UserErrors) > 0 {
			// Vendor messages go back to the merchant untranslated.
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "subscription_rejected",
				"errors": gwErr.UserErrors,
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_platform_unavailable"})
	}

	return c.JSON(fiber.Map{"confirmationUrl": confirmationURL})
}

// startSubscription registers the recurring charge with the billing platform
// and returns the confirmation URL the merchant must visit. It deliberately
// touches no local state: until the platform reports the charge back, the
// shop has not subscribed to anything.
func startSubscription(ctx context.Context, gw billingGateway, plan string, returnURL string, test bool) (string, error) {
	price, ok := billing.PriceOf(plan)
	if !ok {
		return "", billing.ErrInvalidPlan
	}
	return gw.CreateSubscription(ctx, billing.SubscriptionName(plan), price, returnURL, test)
}

// HandleBillingConfirmReturn is where the platform redirects the merchant
// after the charge confirmation page. The query string only says where the
// merchant came from; the platform itself is asked which subscriptions are
// active, and only that answer enters local state.
func HandleBillingConfirmReturn(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)
	if strings.TrimSpace(c.Query("charge_id")) == "" {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Missing charge id"}).Redirect("/app")
	}

	var shop models.Shop
	if err := database.GetDB().Where("domain = ?", shopDomain).First(&shop).Error; err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Shop not found"}).Redirect("/app")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := shopify.NewAdminClient(shop.Domain, shop.AccessToken)
	if _, err := confirmActivation(ctx, client, billingService(), shopDomain); err != nil {
		if errors.Is(err, billing.ErrNoActiveSubscription) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "The billing platform reports no active subscription for this shop"}).Redirect("/app/pricing")
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Subscription confirmation failed"}).Redirect("/app")
	}

	cache.MarkSubscriptionSynced(shopDomain, subscriptionSyncWindow)
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Subscription activated"}).Redirect("/app")
}

// confirmActivation asks the billing platform for the shop's active
// subscriptions and reconciles the first as a confirmed activation. A
// confirmation redirect alone proves nothing: when the platform reports no
// active subscription, nothing is written and ErrNoActiveSubscription is
// returned for the caller to surface.
func confirmActivation(ctx context.Context, gw billingGateway, svc *billing.Service, shopDomain string) (*models.Subscription, error) {
	remote, err := gw.ActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return nil, billing.ErrNoActiveSubscription
	}

	r := remote[0]
	plan, _ := billing.PlanFromSubscriptionName(r.Name)
	obs := billing.Observation{
		Source:               billing.SourceConfirm,
		Status:               strings.ToLower(r.Status),
		Plan:                 plan,
		SourceSubscriptionID: r.ID,
	}
	if r.Price > 0 {
		price := r.Price
		obs.Price = &price
	}
	return svc.Reconcile(ctx, shopDomain, obs)
}

// HandleCancelForm renders the cancellation confirmation page.
func HandleCancelForm(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)
	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sub, err := svc.CurrentSubscription(ctx, shopDomain)
	if err != nil || sub == nil || !sub.IsLive() {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "No active subscription to cancel"}).Redirect("/app/pricing")
	}

	planName, ok := billing.DisplayNameOf(sub.Plan)
	if !ok {
		planName = sub.Plan
	}
	return c.Render("cancel", fiber.Map{
		"Title":      "Cancel subscription",
		"ShopDomain": shopDomain,
		"PlanName":   planName,
		"Price":      sub.Price,
		"Flash":      appflash.Get(c),
	})
}

// HandleCancel cancels the shop's subscriptions on the billing platform and
// reconciles the result. The platform is asked first for the authoritative
// list of active subscriptions; local state alone is not sufficient grounds
// to issue a cancel call.
func HandleCancel(c *fiber.Ctx) error {
	shopDomain := shopcontext.GetShopDomain(c)

	var shop models.Shop
	if err := database.GetDB().Where("domain = ?", shopDomain).First(&shop).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "shop_not_found"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client := shopify.NewAdminClient(shop.Domain, shop.AccessToken)
	remote, err := client.ActiveSubscriptions(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_platform_unavailable"})
	}
	if len(remote) == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "no_active_subscription",
			"message": billing.ErrNoActiveSubscription.Error(),
		})
	}

	for _, r := range remote {
		if err := client.CancelSubscription(ctx, r.ID); err != nil {
			var gwErr *shopify.GatewayError
			if errors.As(err, &gwErr) && len(gwErr.UserErrors) > 0 {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":  "cancel_rejected",
					"errors": gwErr.UserErrors,
				})
			}
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "billing_platform_unavailable"})
		}
	}

	svc := billingService()
	if _, err := svc.Reconcile(ctx, shopDomain, billing.Observation{
		Source: billing.SourceCommand,
		Status: models.SubscriptionStatusCancelled,
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_persist_failed"})
	}

	cache.MarkSubscriptionSynced(shopDomain, subscriptionSyncWindow)
	return c.JSON(fiber.Map{"ok": true})
}
