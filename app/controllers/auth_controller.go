package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/StorePlanHQ/StorePlan/internal/pkg/session"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
)

// HandleOAuthCallback completes the install flow and binds the shop session.
// The shop row is created or refreshed with the new access token; a token
// placeholder left by an early webhook is overwritten here.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	// For the shopify provider the unified user carries the shop domain in
	// the NickName field and the offline token in AccessToken.
	shopDomain := u.NickName
	if shopDomain == "" {
		shopDomain = c.Query("shop")
	}
	if shopDomain == "" || u.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).SendString("OAuth response missing shop or token")
	}

	svc := billingService()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shop, err := svc.UpsertShop(ctx, shopDomain, u.AccessToken)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("shop registration failed: %v", err))
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session unavailable")
	}
	sess.Set(shopcontext.KeyShopDomain, shop.Domain)
	sess.Set(shopcontext.KeyShopID, shop.ID)
	sess.Set(shopcontext.AuthKey, true)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	return c.Redirect("/app", fiber.StatusSeeOther)
}

// HandleLogout drops the shop session.
func HandleLogout(c *fiber.Ctx) error {
	if sess, err := session.GetSessionStore().Get(c); err == nil {
		_ = sess.Destroy()
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
