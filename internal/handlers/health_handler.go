package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/ats-analyzer/internal/handlers/presenter"
)

// checkTimeout bounds each readiness probe.
const checkTimeout = 2 * time.Second

// Checker is a dependency the service cannot work without.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

type HealthHandler struct {
	checkers []Checker
}

func NewHealthHandler(checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// HandleHealth handles GET /api/v1/health.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleReady handles GET /api/v1/ready and reports every failing check.
func (h *HealthHandler) HandleReady(c *fiber.Ctx) error {
	checks := fiber.Map{}
	ready := true

	for _, ch := range h.checkers {
		ctx, cancel := context.WithTimeout(c.UserContext(), checkTimeout)
		err := ch.Check(ctx)
		cancel()

		if err != nil {
			ready = false
			checks[ch.Name()] = err.Error()
			continue
		}
		checks[ch.Name()] = "ok"
	}

	if !ready {
		return presenter.JSON(c, fiber.StatusServiceUnavailable, fiber.Map{"status": "not ready", "checks": checks})
	}
	return presenter.JSON(c, fiber.StatusOK, fiber.Map{"status": "ready", "checks": checks})
}
