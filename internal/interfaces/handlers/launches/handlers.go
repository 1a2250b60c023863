package launches

import (
	"context"

	"birthpad-backend/internal/application/contributions"
	"birthpad-backend/internal/application/identity"
	launchsvc "birthpad-backend/internal/application/launches"
	"birthpad-backend/internal/application/vesting"
	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/middleware"
	"birthpad-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service   *launchsvc.Service
	Processor *contributions.Processor
	Vesting   *vesting.Calculator
}

func actor(c *fiber.Ctx) (identity.Actor, error) {
	a, ok := middleware.GetActor(c)
	if !ok {
		return a, domain.ErrUnauthenticated
	}
	return a, nil
}

// POST /projects
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var body launchsvc.CreateLaunchInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	created, err := h.Service.CreateLaunch(c.UserContext(), a, body)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Project created successfully", created, nil)
}

// GET /projects?sort=all|trending|new
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	sortBy := c.Query("sort", launchsvc.SortAll)
	items, err := h.Service.List(c.UserContext(), sortBy)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Projects fetched successfully", items, fiber.Map{"count": len(items), "sort": sortBy})
}

// GET /projects/:id
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	detail, err := h.Service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Project fetched successfully", detail, nil)
}

// GET /projects/:id/risk
func (h *Handlers) GetRisk(c *fiber.Ctx) error {
	report, err := h.Service.Risk(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Risk report fetched successfully", report, nil)
}

// POST /projects/:id/buy
func (h *Handlers) Buy(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var body contributions.BuyInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Processor.Buy(c.UserContext(), a.Wallet, c.Params("id"), body)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Accepted(c, "Contribution queued", res)
}

// GET /projects/:id/claimable
func (h *Handlers) Claimable(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	stats, err := h.Vesting.Claimable(c.UserContext(), a.Wallet, c.Params("id"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Claimable amount fetched successfully", stats, nil)
}

// POST /projects/:id/claim
func (h *Handlers) Claim(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	res, err := h.Vesting.Claim(c.UserContext(), a.Wallet, c.Params("id"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Tokens claimed successfully", res, nil)
}

// PUT /projects/:id/whitelist
func (h *Handlers) UpdateWhitelist(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var body launchsvc.WhitelistUpdate
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.UpdateWhitelist(c.UserContext(), a, c.Params("id"), body)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Whitelist updated successfully", res, nil)
}

// POST /projects/:id/pause
func (h *Handlers) Pause(c *fiber.Ctx) error {
	return h.transition(c, "Sale paused", h.Service.Pause)
}

// POST /projects/:id/resume
func (h *Handlers) Resume(c *fiber.Ctx) error {
	return h.transition(c, "Sale resumed", h.Service.Resume)
}

// POST /projects/:id/finalize
func (h *Handlers) Finalize(c *fiber.Ctx) error {
	return h.transition(c, "Finalization queued", h.Service.Finalize)
}

// POST /projects/:id/refund
func (h *Handlers) Refund(c *fiber.Ctx) error {
	return h.transition(c, "Refund queued", h.Service.Refund)
}

type transitionFunc func(ctx context.Context, actor identity.Actor, projectID string) (*launchsvc.TransitionResult, error)

func (h *Handlers) transition(c *fiber.Ctx, message string, fn transitionFunc) error {
	a, err := actor(c)
	if err != nil {
		return response.Fail(c, err)
	}
	res, err := fn(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, message, res, nil)
}
