package usercontext

import "github.com/gofiber/fiber/v2"

// Locals keys
const (
	KeyUserContext = "USER_CONTEXT"
	KeyLoggedIn    = "FROM_PROTECTED"
	KeyIsAdmin     = "USER_IS_ADMIN"
)

// UserContext carries the authenticated user through a request
type UserContext struct {
	UserID     uint
	Username   string
	Role       string
	IsLoggedIn bool
	IsAdmin    bool
}

// GetUserContext returns the context set by the middleware, or an anonymous one
func GetUserContext(c *fiber.Ctx) UserContext {
	if v, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return v
	}
	return UserContext{}
}
