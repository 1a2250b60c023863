package transactions

import (
	txsvc "birthpad-backend/internal/application/transactions"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *txsvc.Service
}

// GET /transactions?projectId=&wallet=&limit=
func (h *Handlers) GetTransactions(c *fiber.Ctx) error {
	q := txsvc.Query{
		ProjectID: c.Query("projectId"),
		Wallet:    c.Query("wallet"),
		Limit:     c.QueryInt("limit", txsvc.DefaultLimit),
	}
	data, err := h.Service.Feed(c.UserContext(), q)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", data, fiber.Map{"count": len(data)})
}
