package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/usercontext"
)

type accountView struct {
	Account models.SocialAccount
	Stats   *models.SocialStat
}

// HandleDashboard renders the creator dashboard with connected accounts and
// their latest engagement snapshots.
func HandleDashboard(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)

	accounts, err := socialService.ListAccounts(c.Context(), user.UserID)
	if err != nil {
		log.Errorf("[Dashboard] listing accounts for user %d failed: %v", user.UserID, err)
		accounts = nil
	}

	views := make([]accountView, 0, len(accounts))
	for _, account := range accounts {
		stat, err := socialService.LatestStats(c.Context(), user.UserID, account.ID)
		if err != nil {
			log.Warnf("[Dashboard] stats lookup for account %s failed: %v", account.ID, err)
		}
		views = append(views, accountView{Account: account, Stats: stat})
	}

	connected := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		connected[account.Platform] = true
	}
	available := make([]string, 0, len(models.SocialPlatforms))
	for _, platform := range models.SocialPlatforms {
		if !connected[platform] {
			available = append(available, platform)
		}
	}

	return c.Render("dashboard", fiber.Map{
		"Page":      "dashboard",
		"User":      user,
		"Accounts":  views,
		"Available": available,
	}, "layouts/main")
}
