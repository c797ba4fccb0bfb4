package router

import (
	"github.com/subamericanetwork/nx8up/app/controllers"
	"github.com/subamericanetwork/nx8up/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Site sign-in via goth (Google)
	app.Get("/auth/:provider", gothfiber.BeginAuthHandler)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)

	// Provider redirect target for account linking. Every platform redirects
	// here; the state parameter carries the platform.
	app.Get("/social/callback", controllers.HandleSocialCallback)
}
