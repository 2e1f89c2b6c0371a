package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-autopilot/internal/api/dto"
	"github.com/spec-kit/ticket-autopilot/internal/engine"
	"github.com/spec-kit/ticket-autopilot/internal/service"
	"github.com/spec-kit/ticket-autopilot/internal/workflow"
	"github.com/spec-kit/ticket-autopilot/pkg/util"
)

// AutomationHandler exposes pipeline runs over HTTP.
type AutomationHandler struct {
	svc  *service.AutomationService
	exec *engine.Executor[workflow.State]
}

// NewAutomationHandler returns a new handler instance.
func NewAutomationHandler(svc *service.AutomationService, exec *engine.Executor[workflow.State]) *AutomationHandler {
	return &AutomationHandler{svc: svc, exec: exec}
}

// RunTicket processes a single ticket through the pipeline.
func (h *AutomationHandler) RunTicket(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return util.NewValidationError("ticket id must be a positive integer", nil)
	}

	report, err := h.svc.ProcessTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromRunReport(report))
}

// RunBatch processes every open ticket.
func (h *AutomationHandler) RunBatch(c *fiber.Ctx) error {
	reports, err := h.svc.ProcessOpenTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.FromRunReports(reports))
}

// Graph renders the compiled pipeline topology in DOT format.
func (h *AutomationHandler) Graph(c *fiber.Ctx) error {
	out, err := h.exec.DOT()
	if err != nil {
		return util.NewInternalError(err)
	}
	c.Set(fiber.HeaderContentType, "text/vnd.graphviz")
	return c.SendString(out)
}
