package deployment

import (
	"birthpad-backend/internal/config"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Deployment config.Deployment
}

// GET /config/deployment
func (h *Handlers) GetDeployment(c *fiber.Ctx) error {
	return response.Success(c, "Deployment config fetched successfully", h.Deployment, nil)
}
