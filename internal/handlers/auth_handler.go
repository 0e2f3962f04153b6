package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/dto"
	"github.com/panelkit/panelkit/internal/middleware"
	"github.com/panelkit/panelkit/internal/services"
	"github.com/panelkit/panelkit/internal/store"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Register(c.Context(), &req)
	if err != nil {
		var vErr services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return badRequest(c, vErr.Error())
		case errors.Is(err, services.ErrEmailTaken):
			return badRequest(c, err.Error())
		}
		return internalError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Login(c.Context(), &req)
	if err != nil {
		var vErr services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return badRequest(c, vErr.Error())
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return internalError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) GoogleAuth(c *fiber.Ctx) error {
	return h.federated(c, store.ProviderGoogle)
}

func (h *AuthHandler) MicrosoftAuth(c *fiber.Ctx) error {
	return h.federated(c, store.ProviderMicrosoft)
}

func (h *AuthHandler) federated(c *fiber.Ctx, provider store.Provider) error {
	var req dto.ProviderTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.FederatedLogin(c.Context(), provider, req.Token)
	if err != nil {
		var vErr services.ValidationError
		switch {
		case errors.As(err, &vErr):
			return badRequest(c, vErr.Error())
		case errors.Is(err, services.ErrInvalidProviderToken):
			return badRequest(c, err.Error())
		}
		return internalError(c, err)
	}

	return c.JSON(resp)
}

// Verify runs behind the session gate: reaching it means the token on the
// request already passed verification, so it just echoes the identity back.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	return c.JSON(dto.VerifyResponse{Valid: true, UserID: userID})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func internalError(c *fiber.Ctx, err error) error {
	// The fiber error handler logs the details; clients only see a generic
	// message.
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
