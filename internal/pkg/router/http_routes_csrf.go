package router

import (
	"strings"
	"time"

	"github.com/StorePlanHQ/StorePlan/app/controllers"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/constants"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/env"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), constants.WebhooksRoute+"/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))

	// Embedded app dashboard
	group.Get(constants.AppRoute, middleware.RequireShop, controllers.HandleDashboard)

	// Plan selection; posting the form starts the subscription
	group.Get(constants.PricingRoute, middleware.RequireShop, controllers.HandlePricing)
	group.Post(constants.PricingRoute, middleware.RequireShop, controllers.HandleSubscribe)

	// Merchant returns here from the platform's charge confirmation page
	group.Get(constants.BillingConfirmRoute, middleware.RequireShop, controllers.HandleBillingConfirmReturn)

	// Cancellation
	group.Get(constants.BillingCancelRoute, middleware.RequireShop, controllers.HandleCancelForm)
	group.Post(constants.BillingCancelRoute, middleware.RequireShop, controllers.HandleCancel)
}
