package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/subamericanetwork/nx8up/internal/pkg/social"
	"github.com/subamericanetwork/nx8up/internal/pkg/usercontext"
)

// currentUserID returns the authenticated user id or 0 for anonymous
func currentUserID(c *fiber.Ctx) uint {
	return usercontext.GetUserContext(c).UserID
}

// apiError writes the JSON error envelope with the HTTP status that fits the
// social error taxonomy.
func apiError(c *fiber.Ctx, err error) error {
	status, code := statusForError(err)
	body := fiber.Map{
		"error":   code,
		"message": err.Error(),
	}
	if step := social.StepForError(err); code != "internal_error" && step != "" {
		body["step"] = step
	}
	return c.Status(status).JSON(body)
}

func statusForError(err error) (int, string) {
	var (
		configErr      *social.ConfigurationError
		stateErr       *social.StateError
		exchangeErr    *social.TokenExchangeError
		identityErr    *social.IdentityFetchError
		expiredErr     *social.CredentialExpiredError
		unavailableErr *social.ProviderUnavailableError
	)
	switch {
	case errors.Is(err, social.ErrUnauthorized):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, social.ErrAccountNotFound):
		return fiber.StatusNotFound, "account_not_found"
	case errors.Is(err, social.ErrCredentialMissing):
		return fiber.StatusConflict, "credential_missing"
	case errors.As(err, &expiredErr):
		return fiber.StatusUnauthorized, "credential_expired"
	case errors.As(err, &configErr):
		return fiber.StatusServiceUnavailable, "configuration_error"
	case errors.As(err, &stateErr):
		return fiber.StatusBadRequest, "invalid_state"
	case errors.As(err, &exchangeErr):
		return fiber.StatusBadRequest, "token_exchange_failed"
	case errors.As(err, &identityErr):
		return fiber.StatusUnprocessableEntity, "identity_fetch_failed"
	case errors.As(err, &unavailableErr):
		return fiber.StatusServiceUnavailable, "provider_unavailable"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}
