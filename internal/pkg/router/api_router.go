package router

import (
	"github.com/subamericanetwork/nx8up/app/controllers"
	"github.com/subamericanetwork/nx8up/internal/pkg/middleware"

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

	v1 := api.Group("/v1")

	social := v1.Group("/social", middleware.RequireAPISessionAuth)
	social.Post("/connect", controllers.HandleSocialConnect)
	social.Get("/connect/status", controllers.HandleConnectStatus)
	social.Get("/accounts", controllers.HandleListAccounts)
	social.Post("/accounts/:id/sync", controllers.HandleSyncAccount)
	social.Get("/accounts/:id/stats", controllers.HandleAccountStats)
	social.Delete("/accounts/:id", controllers.HandleDisconnectAccount)

	campaigns := v1.Group("/campaigns", middleware.RequireAPISessionAuth)
	campaigns.Get("/", controllers.HandleListCampaigns)
	campaigns.Post("/:id/apply", controllers.HandleApplyToCampaign)
	campaigns.Get("/applications", controllers.HandleListMyApplications)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
