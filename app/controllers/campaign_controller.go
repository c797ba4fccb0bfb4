package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/app/repository"
)

// HandleListCampaigns returns open campaigns, optionally filtered by platform.
func HandleListCampaigns(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaigns, err := repo.ListOpen((page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not load campaigns",
		})
	}

	if platform := c.Query("platform"); platform != "" {
		filtered := make([]models.Campaign, 0, len(campaigns))
		for _, campaign := range campaigns {
			if campaign.Platform == "" || campaign.Platform == platform {
				filtered = append(filtered, campaign)
			}
		}
		campaigns = filtered
	}

	return c.JSON(fiber.Map{
		"campaigns": campaigns,
		"page":      page,
	})
}

type applyRequest struct {
	Message string `json:"message"`
}

// HandleApplyToCampaign records the caller's application to an open campaign.
func HandleApplyToCampaign(c *fiber.Ctx) error {
	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "invalid campaign id",
		})
	}

	var req applyRequest
	_ = c.BodyParser(&req)

	repo := repository.GetGlobalFactory().GetCampaignRepository()
	campaign, err := repo.GetByID(uint(campaignID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   "not_found",
				"message": "campaign not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not load campaign",
		})
	}
	if campaign.Status != models.CampaignStatusOpen {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "campaign_closed",
			"message": "this campaign is not accepting applications",
		})
	}

	application := &models.CampaignApplication{
		CampaignID: campaign.ID,
		CreatorID:  currentUserID(c),
		Message:    req.Message,
		Status:     models.ApplicationStatusPending,
	}
	if err := repo.Apply(application); err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "already_applied",
				"message": "you already applied to this campaign",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not save application",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"application": application,
	})
}

// HandleListMyApplications returns the caller's campaign applications.
func HandleListMyApplications(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetCampaignRepository()
	applications, err := repo.ListApplicationsByCreator(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not load applications",
		})
	}
	return c.JSON(fiber.Map{"applications": applications})
}
