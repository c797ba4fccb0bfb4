package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/internal/pkg/database"
	"github.com/subamericanetwork/nx8up/internal/pkg/middleware"
	"github.com/subamericanetwork/nx8up/internal/pkg/session"
	"github.com/subamericanetwork/nx8up/internal/pkg/usercontext"
)

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		var user models.User
		fm := fiber.Map{"type": "error"}

		// notice: in production you should not inform the user
		// with detailed messages about login failures
		result := database.GetDB().Where("email = ?", c.FormValue("email")).First(&user)
		if result.Error != nil {
			fm["message"] = "There is a problem with the login process"
			return flash.WithError(c, fm).Redirect("/login")
		}

		if !models.CheckPasswordHash(c.FormValue("password"), user.Password) {
			fm["message"] = "There is a problem with the login process"
			return flash.WithError(c, fm).Redirect("/login")
		}

		if err := createUserSession(c, &user); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)
			return flash.WithError(c, fm).Redirect("/login")
		}

		database.GetDB().Model(&user).Update("last_login_at", time.Now())

		return flash.WithSuccess(c, fiber.Map{
			"type":    "success",
			"message": "Welcome back!",
		}).Redirect("/dashboard")
	}

	return c.Render("auth/login", fiber.Map{
		"Title": "Login",
		"Flash": flash.Get(c),
		"csrf":  c.Locals("csrf"),
	}, "layouts/main")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		fm := fiber.Map{"type": "error"}

		role := c.FormValue("role")
		if role != models.ROLE_CREATOR && role != models.ROLE_SPONSOR {
			role = models.ROLE_CREATOR
		}

		user, err := models.CreateUser(
			c.FormValue("name"),
			c.FormValue("email"),
			c.FormValue("password"),
			role,
		)
		if err != nil {
			fm["message"] = fmt.Sprintf("invalid registration: %s", err)
			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := database.GetDB().Create(user).Error; err != nil {
			fm["message"] = "registration failed, the email may already be in use"
			return flash.WithError(c, fm).Redirect("/register")
		}

		if err := createUserSession(c, user); err != nil {
			fm["message"] = fmt.Sprintf("something went wrong: %s", err)
			return flash.WithError(c, fm).Redirect("/login")
		}

		return flash.WithSuccess(c, fiber.Map{
			"type":    "success",
			"message": "Account created. Link your social accounts to get started!",
		}).Redirect("/dashboard")
	}

	return c.Render("auth/register", fiber.Map{
		"Title": "Register",
		"Flash": flash.Get(c),
		"csrf":  c.Locals("csrf"),
	}, "layouts/main")
}

func HandleAuthLogout(c *fiber.Ctx) error {
	fm := fiber.Map{"type": "error"}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm["message"] = "logged out (no sess)"
		return flash.WithError(c, fm).Redirect("/login")
	}

	if err := sess.Destroy(); err != nil {
		fm["message"] = fmt.Sprintf("something went wrong: %s", err)
		return flash.WithError(c, fm).Redirect("/login")
	}

	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": "Logged out. See you soon!",
	}).Redirect("/login")
}

// createUserSession writes the login state into a fresh session
func createUserSession(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}
	sess.Set(middleware.AuthKey, true)
	sess.Set(middleware.UserIDKey, user.ID)
	sess.Set(middleware.UserNameKey, user.Name)
	sess.Set(middleware.UserRoleKey, user.Role)
	return sess.Save()
}

// HandleIndex renders the landing page
func HandleIndex(c *fiber.Ctx) error {
	return c.Render("index", fiber.Map{
		"Title":    "NX8UP",
		"Flash":    flash.Get(c),
		"LoggedIn": usercontext.GetUserContext(c).IsLoggedIn,
	}, "layouts/main")
}
