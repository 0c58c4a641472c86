package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/users"
)

// dummyHash is a bcrypt hash verified when the email does not match a user,
// keeping login timing constant whether or not the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// ProcessLoginAction authenticates an admin and sets the session cookie.
// Accepts both form and JSON bodies.
func ProcessLoginAction(ctx *cartridge.Context) error {
	email := ctx.FormValue("email")
	password := ctx.FormValue("password")

	if email == "" && password == "" {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.BodyParser(&body); err == nil {
			email = body.Email
			password = body.Password
		}
	}

	if email == "" || password == "" {
		return jsonError(ctx, fiber.StatusBadRequest, "Email and password are required")
	}

	db := ctx.DB()
	user, err := users.FindByEmail(db, email)

	var passwordValid bool
	if err != nil {
		users.VerifyPasswordHash(dummyHash, password)
	} else {
		passwordValid = user.VerifyPassword(password)
	}

	if !passwordValid {
		ctx.Logger.Debug("Failed login attempt", slog.String("email", email))
		return jsonError(ctx, fiber.StatusUnauthorized, "Invalid email or password")
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		return internalError(ctx, "login", err)
	}

	ctx.Logger.Debug("Login successful", slog.String("email", email), slog.Int("userId", int(user.ID)))
	return ctx.JSON(fiber.Map{"success": true})
}

// LogoutAction clears the session cookie.
func LogoutAction(ctx *cartridge.Context) error {
	ctx.Session.ClearSession(ctx.Ctx)
	return ctx.JSON(fiber.Map{"success": true})
}
