package middleware

import (
	"strings"

	"pos-backoffice/internal/notify"
	"pos-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token against the user's current session
// and stores the caller in c.Locals.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		session, err := auth.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals("user_id", session.User.ID.String())
		c.Locals("user_email", session.User.Email)
		c.Locals("user_name", session.User.FullName)
		c.Locals("user_privileges", session.Privileges)

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// Actor returns the authenticated caller recorded by RequireAuth.
func Actor(c *fiber.Ctx) notify.Actor {
	id, _ := c.Locals("user_id").(string)
	name, _ := c.Locals("user_name").(string)
	email, _ := c.Locals("user_email").(string)
	return notify.Actor{ID: id, Name: name, Email: email}
}
