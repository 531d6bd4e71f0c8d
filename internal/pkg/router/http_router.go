package router

import (
	"github.com/StorePlanHQ/StorePlan/internal/pkg/middleware"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/oauth"
	"github.com/StorePlanHQ/StorePlan/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply ShopContext middleware globally as first middleware
	app.Use(middleware.ShopContextMiddleware)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
