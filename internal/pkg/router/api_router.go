package router

import (
	"github.com/StorePlanHQ/StorePlan/app/controllers"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Get("/subscription", middleware.RequireAPIShopAuth, controllers.HandleAPISubscription)
	v1.Get("/plans", controllers.HandleAPIPlans)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
