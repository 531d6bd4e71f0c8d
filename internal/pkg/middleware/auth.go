package middleware

import (
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
	"github.com/gofiber/fiber/v2"
)

// RequireShop ensures an installed shop session; redirects to /auth/shopify if missing.
func RequireShop(c *fiber.Ctx) error {
	if !shopcontext.IsInstalled(c) {
		return c.Redirect("/auth/shopify", fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPIShopAuth ensures an installed shop for API routes and returns JSON 401 instead of redirect.
func RequireAPIShopAuth(c *fiber.Ctx) error {
	if !shopcontext.IsInstalled(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "shop session required",
		})
	}
	return c.Next()
}
