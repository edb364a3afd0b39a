package http

import (
	"database/sql"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"curridata/internal/store"
)

// parseIDParam parses the numeric :id path parameter, writing a 400
// response when it is not a positive integer.
func parseIDParam(c *fiber.Ctx) (int32, bool) {
	n, err := strconv.Atoi(c.Params("id"))
	if err != nil || n <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "invalid id",
		})
		return 0, false
	}
	return int32(n), true
}

func deptFromRequest(req DeptRequest) store.Dept {
	var cagentID sql.NullInt32
	if req.CAgentID != nil {
		cagentID = sql.NullInt32{Int32: *req.CAgentID, Valid: true}
	}
	return store.Dept{
		College:      req.College,
		CollegeShort: req.CollegeShort,
		Dept:         req.Dept,
		DeptShort:    req.DeptShort,
		StudyType:    req.StudyType,
		AgentName:    req.AgentName,
		AgentExt:     req.AgentExt,
		AgentEmail:   req.AgentEmail,
		CAgentID:     cagentID,
	}
}

// deptItemFromRow maps one depts list row to its response shape. The
// curriculum-agent fields are included only when the FK is set.
func deptItemFromRow(d store.DeptWithCAgent) DeptItem {
	item := DeptItem{
		ID:           d.ID,
		College:      d.College,
		CollegeShort: d.CollegeShort,
		Dept:         d.Dept,
		DeptShort:    d.DeptShort,
		StudyType:    d.StudyType,
		AgentName:    d.AgentName,
		AgentExt:     d.AgentExt,
		AgentEmail:   d.AgentEmail,
	}
	if d.CAgentID.Valid {
		id := d.CAgentID.Int32
		item.CAgentID = &id
		item.CAgentName = d.CAgentName.String
		item.CAgentExt = d.CAgentExt.String
		item.CAgentEmail = d.CAgentEmail.String
	}
	return item
}

// listDeptsHandler returns all departments with their curriculum-office
// agent details.
func listDeptsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	depts, err := st.ListDepts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ListDeptsResponse{
			Success: false,
			Code:    "DEPT_LIST_FAILED",
			Error:   err.Error(),
		})
	}

	items := make([]DeptItem, 0, len(depts))
	for _, d := range depts {
		items = append(items, deptItemFromRow(d))
	}

	return c.Status(fiber.StatusOK).JSON(ListDeptsResponse{
		Success: true,
		Depts:   items,
	})
}

func createDeptHandler(c *fiber.Ctx) error {
	var req DeptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}
	if req.Dept == "" || req.DeptShort == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required fields 'dept' and 'deptShort'",
		})
	}

	st := c.Locals("store").(*store.Store)
	if err := st.CreateDept(c.Context(), deptFromRequest(req)); err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "department name or short name already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "DEPT_CREATE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Department added successfully.",
	})
}

func updateDeptHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req DeptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.UpdateDept(c.Context(), id, deptFromRequest(req))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "department name or short name already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "DEPT_UPDATE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "department not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Department updated successfully.",
	})
}

func deleteDeptHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.DeleteDept(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "DEPT_DELETE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "department not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Department deleted successfully.",
	})
}
