package portfolio

import (
	portfoliosvc "birthpad-backend/internal/application/portfolio"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *portfoliosvc.Service
}

// GET /portfolio/:wallet
func (h *Handlers) ViewPortfolio(c *fiber.Ctx) error {
	positions, err := h.Service.Positions(c.UserContext(), c.Params("wallet"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Portfolio fetched successfully", positions, nil)
}
