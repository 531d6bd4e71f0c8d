package shopcontext

import "github.com/gofiber/fiber/v2"

// ShopContext represents the installed shop bound to a request
type ShopContext struct {
	ShopID      uint   `json:"shop_id"`
	ShopDomain  string `json:"shop_domain"`
	IsInstalled bool   `json:"is_installed"`
	Plan        string `json:"plan"`
}

// GetShopContext retrieves the shop context from fiber context
// Returns a default anonymous context if none is set
func GetShopContext(c *fiber.Ctx) ShopContext {
	if ctx := c.Locals("SHOP_CONTEXT"); ctx != nil {
		return ctx.(ShopContext)
	}
	return ShopContext{IsInstalled: false}
}

// IsInstalled checks if the current request belongs to an installed shop
func IsInstalled(c *fiber.Ctx) bool {
	return GetShopContext(c).IsInstalled
}

// GetShopID returns the current shop's ID, or 0 if none is bound
func GetShopID(c *fiber.Ctx) uint {
	return GetShopContext(c).ShopID
}

// GetShopDomain returns the current shop's domain, or empty string if none is bound
func GetShopDomain(c *fiber.Ctx) string {
	return GetShopContext(c).ShopDomain
}
