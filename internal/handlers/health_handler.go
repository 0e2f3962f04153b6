package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/panelkit/panelkit/internal/dto"
)

type HealthHandler struct {
	pingDB func(context.Context) error
}

func NewHealthHandler(pingDB func(context.Context) error) *HealthHandler {
	return &HealthHandler{pingDB: pingDB}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.pingDB(c.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
