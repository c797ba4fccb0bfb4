package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/subamericanetwork/nx8up/internal/pkg/social"
	"github.com/subamericanetwork/nx8up/internal/pkg/usercontext"
)

var (
	socialService *social.Service
	socialStates  *social.StateStore
)

// InitializeSocialController wires the social service and state store
func InitializeSocialController(service *social.Service, states *social.StateStore) {
	socialService = service
	socialStates = states
}

type connectRequest struct {
	Platform string `json:"platform"`
}

// HandleSocialConnect starts the linking flow and returns the provider
// authorization URL for the client to open.
func HandleSocialConnect(c *fiber.Ctx) error {
	var req connectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "platform is required",
		})
	}

	result, err := socialService.BeginConnect(c.Context(), currentUserID(c), req.Platform)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(result)
}

// HandleSocialCallback is the single redirect target registered with every
// provider. It finishes the handshake, publishes the outcome for the opener
// to poll, and renders the popup completion page.
func HandleSocialCallback(c *fiber.Ctx) error {
	state := c.Query("state")
	code := c.Query("code")
	providerErr := c.Query("error")

	nonce, platform, parseErr := social.ParseState(state)
	if parseErr != nil {
		// Without a valid state there is no completion channel to signal
		return renderConnectComplete(c, "error", "", "invalid or missing state parameter")
	}

	publish := func(rec social.CompletionRecord) {
		if err := socialStates.Complete(c.Context(), nonce, rec); err != nil {
			log.Errorf("[Social] completion publish failed for %s: %v", nonce, err)
		}
	}

	if providerErr != "" {
		publish(social.CompletionRecord{
			Status:   "error",
			Platform: platform,
			Step:     social.StepExchange,
			Message:  "the provider denied authorization: " + providerErr,
		})
		return renderConnectComplete(c, "error", platform, "authorization was denied")
	}

	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		publish(social.CompletionRecord{
			Status:   "error",
			Platform: platform,
			Step:     social.StepCaller,
			Message:  "login required",
		})
		return renderConnectComplete(c, "error", platform, "you must be logged in to link an account")
	}

	account, err := socialService.CompleteConnect(c.Context(), user.UserID, platform, code, state)
	if err != nil {
		log.Warnf("[Social] connect failed for user %d on %s: %v", user.UserID, platform, err)
		publish(social.CompletionRecord{
			Status:   "error",
			Platform: platform,
			Step:     social.StepForError(err),
			Message:  err.Error(),
		})
		return renderConnectComplete(c, "error", platform, userMessageForError(err))
	}

	publish(social.CompletionRecord{
		Status:    "success",
		AccountID: account.ID,
		Platform:  account.Platform,
	})
	return renderConnectComplete(c, "success", account.Platform, "@"+account.Username+" connected")
}

func renderConnectComplete(c *fiber.Ctx, status, platform, message string) error {
	return c.Render("social/connect_complete", fiber.Map{
		"Status":   status,
		"Platform": platform,
		"Message":  message,
	})
}

// userMessageForError keeps provider internals out of the popup page
func userMessageForError(err error) string {
	switch social.StepForError(err) {
	case social.StepExchange:
		return "the provider rejected the authorization, please try again"
	case social.StepIdentity:
		return "no linkable profile was found on the platform"
	case social.StepCaller:
		return "you must be logged in to link an account"
	case social.StepState:
		return "this connection attempt is no longer valid, please start over"
	default:
		return "the connection could not be saved, please try again"
	}
}

// HandleConnectStatus is polled by the window that opened the popup.
func HandleConnectStatus(c *fiber.Ctx) error {
	state := c.Query("state")
	nonce, _, err := social.ParseState(state)
	if err != nil {
		return apiError(c, err)
	}

	rec, err := socialStates.GetCompletion(c.Context(), nonce)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "could not read completion state",
		})
	}
	if rec == nil {
		return c.JSON(fiber.Map{"status": "pending"})
	}
	return c.JSON(rec)
}

// HandleListAccounts returns the caller's connected accounts without
// credentials.
func HandleListAccounts(c *fiber.Ctx) error {
	accounts, err := socialService.ListAccounts(c.Context(), currentUserID(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

// HandleSyncAccount triggers a synchronous stats pull for one account.
func HandleSyncAccount(c *fiber.Ctx) error {
	accountID := c.Params("id")
	userID := currentUserID(c)

	// Ownership check before doing provider work
	if _, err := socialService.GetOwnedAccount(c.Context(), userID, accountID); err != nil {
		return apiError(c, err)
	}

	stat, err := socialService.SyncStats(c.Context(), accountID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "stats": stat})
}

// HandleAccountStats returns the latest snapshot for one account.
func HandleAccountStats(c *fiber.Ctx) error {
	stat, err := socialService.LatestStats(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return apiError(c, err)
	}
	if stat == nil {
		return c.JSON(fiber.Map{"success": true, "stats": nil})
	}
	return c.JSON(fiber.Map{"success": true, "stats": stat})
}

// HandleDisconnectAccount unlinks one account.
func HandleDisconnectAccount(c *fiber.Ctx) error {
	if err := socialService.Disconnect(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
