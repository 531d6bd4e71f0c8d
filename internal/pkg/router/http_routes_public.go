package router

import (
	"github.com/StorePlanHQ/StorePlan/app/controllers"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/constants"
	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Landing page
	app.Get(constants.PublicRoute, controllers.HandleStart)

	// App install OAuth
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Post("/logout", controllers.HandleLogout)

	// Billing platform webhooks (no CSRF, signature-verified in controller)
	app.Post(constants.WebhooksRoute+"/app-subscriptions-update", controllers.HandleSubscriptionUpdateWebhook)
	app.Post(constants.WebhooksRoute+"/billing-confirm", controllers.HandleBillingConfirmWebhook)
}
