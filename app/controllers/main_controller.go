package controllers

import (
	"github.com/StorePlanHQ/StorePlan/internal/pkg/flash"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/shopcontext"
	"github.com/gofiber/fiber/v2"
)

// HandleStart renders the public landing page. Installed shops are sent
// straight to the embedded dashboard.
func HandleStart(c *fiber.Ctx) error {
	if shopcontext.IsInstalled(c) {
		return c.Redirect("/app", fiber.StatusSeeOther)
	}
	return c.Render("index", fiber.Map{
		"Title": "StorePlan",
		"Flash": flash.Get(c),
	})
}
