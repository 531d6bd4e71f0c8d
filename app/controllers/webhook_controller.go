package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/billing"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopify"
)

// subscriptionUpdatePayload is the app_subscriptions/update delivery body.
type subscriptionUpdatePayload struct {
	AppSubscription struct {
		AdminGraphqlAPIID string `json:"admin_graphql_api_id"`
		Name              string `json:"name"`
		Status            string `json:"status"`
	} `json:"app_subscription"`
}

// billingConfirmPayload is the billing confirmation delivery body.
type billingConfirmPayload struct {
	ShopDomain string `json:"shop_domain"`
	ChargeID   string `json:"charge_id"`
	Plan       string `json:"plan"`
}

// HandleSubscriptionUpdateWebhook processes subscription status pushes. A
// bad signature is rejected with 401, a redelivery of a stored event is
// acknowledged without reprocessing, and an unknown shop is a 404 so the
// platform retries once the install completes.
func HandleSubscriptionUpdateWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	shopDomain := strings.TrimSpace(c.Get("X-Shopify-Shop-Domain"))
	eventID := firstHeaderValue(c, "X-Shopify-Webhook-Id", "X-Shopify-Event-Id")
	signature := strings.TrimSpace(c.Get("X-Shopify-Hmac-Sha256"))
	secret := env.GetEnv("SHOPIFY_WEBHOOK_SECRET", "")

	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	signatureValid := shopify.VerifyWebhookSignature(rawBody, signature, secret)
	created, stored, err := svc.RecordWebhookEvent(ctx, models.WebhookTopicSubscriptionsUpdate, eventID, shopDomain, string(rawBody), signatureValid)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var payload subscriptionUpdatePayload
	if err := json.Unmarshal(rawBody, &payload); err != nil || payload.AppSubscription.Status == "" {
		if err == nil {
			err = errors.New("payload missing app_subscription status")
		}
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid_payload"})
	}

	plan, _ := billing.PlanFromSubscriptionName(payload.AppSubscription.Name)

	_, reconcileErr := svc.Reconcile(ctx, shopDomain, billing.Observation{
		Source:               billing.SourcePush,
		Status:               strings.ToLower(payload.AppSubscription.Status),
		Plan:                 plan,
		SourceSubscriptionID: payload.AppSubscription.AdminGraphqlAPIID,
	})
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, reconcileErr)
	if reconcileErr != nil {
		if errors.Is(reconcileErr, billing.ErrShopNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "shop_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleBillingConfirmWebhook processes out-of-band charge confirmations.
// Unlike the update topic, a confirmation may precede the merchant's next
// OAuth round trip, so an unknown shop is registered with a placeholder
// credential instead of rejected.
func HandleBillingConfirmWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	eventID := firstHeaderValue(c, "X-Shopify-Webhook-Id", "X-Shopify-Event-Id")
	signature := strings.TrimSpace(c.Get("X-Shopify-Hmac-Sha256"))
	secret := env.GetEnv("SHOPIFY_WEBHOOK_SECRET", "")

	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	shopDomain := strings.TrimSpace(c.Get("X-Shopify-Shop-Domain"))
	signatureValid := shopify.VerifyWebhookSignature(rawBody, signature, secret)
	created, stored, err := svc.RecordWebhookEvent(ctx, models.WebhookTopicBillingConfirm, eventID, shopDomain, string(rawBody), signatureValid)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var payload billingConfirmPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if payload.ShopDomain != "" {
		shopDomain = payload.ShopDomain
	}
	if shopDomain == "" {
		err := errors.New("confirmation missing shop domain")
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "invalid_payload"})
	}

	_, reconcileErr := svc.Reconcile(ctx, shopDomain, billing.Observation{
		Source:               billing.SourceConfirm,
		Status:               models.SubscriptionStatusActive,
		Plan:                 payload.Plan,
		SourceSubscriptionID: payload.ChargeID,
	})
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, reconcileErr)
	if reconcileErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_sync_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
