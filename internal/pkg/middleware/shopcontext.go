package middleware

import (
	"strings"

	"github.com/StorePlanHQ/StorePlan/app/models"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/database"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/session"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
	"github.com/gofiber/fiber/v2"
)

// ShopContextMiddleware binds the installed shop to every embedded-app request
// This centralizes shop session handling and eliminates code duplication
func ShopContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}
	// Webhooks authenticate by HMAC signature, not by session.
	if strings.HasPrefix(c.Path(), "/webhooks/") {
		return c.Next()
	}

	anonymous := shopcontext.ShopContext{IsInstalled: false}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		c.Locals("SHOP_CONTEXT", anonymous)
		return c.Next()
	}

	domainValue := sess.Get(shopcontext.KeyShopDomain)
	domain, _ := domainValue.(string)
	if domain == "" {
		c.Locals("SHOP_CONTEXT", anonymous)
		return c.Next()
	}

	shopCtx := shopcontext.ShopContext{
		ShopDomain:  domain,
		IsInstalled: true,
	}

	// Enrich with the stored shop row and its subscription plan, best-effort.
	if db := database.GetDB(); db != nil {
		var shop models.Shop
		if err := db.Preload("Subscription").Where("domain = ?", domain).First(&shop).Error; err == nil {
			shopCtx.ShopID = shop.ID
			if shop.Subscription != nil && shop.Subscription.IsLive() {
				shopCtx.Plan = shop.Subscription.Plan
			}
		}
	}

	c.Locals("SHOP_CONTEXT", shopCtx)
	return c.Next()
}
