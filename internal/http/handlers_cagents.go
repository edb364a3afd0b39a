package http

import (
	"github.com/gofiber/fiber/v2"

	"curridata/internal/store"
)

// listCAgentsHandler returns all curriculum-office agents.
func listCAgentsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	agents, err := st.ListCAgents(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ListCAgentsResponse{
			Success: false,
			Code:    "CAGENT_LIST_FAILED",
			Error:   err.Error(),
		})
	}

	items := make([]CAgentItem, 0, len(agents))
	for _, a := range agents {
		items = append(items, CAgentItem{ID: a.ID, Name: a.Name, Ext: a.Ext, Email: a.Email})
	}

	return c.Status(fiber.StatusOK).JSON(ListCAgentsResponse{
		Success: true,
		Agents:  items,
	})
}

func createCAgentHandler(c *fiber.Ctx) error {
	var req CAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'name'",
		})
	}

	st := c.Locals("store").(*store.Store)
	if err := st.CreateCAgent(c.Context(), store.CAgent{Name: req.Name, Ext: req.Ext, Email: req.Email}); err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "agent name or email already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "CAGENT_CREATE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Curriculum agent added successfully.",
	})
}

func updateCAgentHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req CAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.UpdateCAgent(c.Context(), id, store.CAgent{Name: req.Name, Ext: req.Ext, Email: req.Email})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "agent name or email already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "CAGENT_UPDATE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "agent not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Curriculum agent updated successfully.",
	})
}

func deleteCAgentHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.DeleteCAgent(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "CAGENT_DELETE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "agent not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Curriculum agent deleted successfully.",
	})
}
