package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/subamericanetwork/nx8up/internal/pkg/session"
	"github.com/subamericanetwork/nx8up/internal/pkg/usercontext"
)

// Session keys written at login
const (
	AuthKey     = "authenticated"
	UserIDKey   = "user_id"
	UserNameKey = "username"
	UserRoleKey = "user_role"
)

// UserContextMiddleware sets up the complete user context for every request
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth keeps its own session store on the login OAuth routes; skip the
	// app session there to avoid cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	anonymous := func() error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{})
		c.Locals(usercontext.KeyLoggedIn, false)
		c.Locals(usercontext.KeyIsAdmin, false)
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous()
	}

	userID, ok := sess.Get(UserIDKey).(uint)
	if !ok || userID == 0 {
		return anonymous()
	}

	username, _ := sess.Get(UserNameKey).(string)
	role, _ := sess.Get(UserRoleKey).(string)

	userCtx := usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		Role:       role,
		IsLoggedIn: true,
		IsAdmin:    role == "admin",
	}
	c.Locals(usercontext.KeyUserContext, userCtx)
	c.Locals(usercontext.KeyLoggedIn, true)
	c.Locals(usercontext.KeyIsAdmin, userCtx.IsAdmin)

	return c.Next()
}
