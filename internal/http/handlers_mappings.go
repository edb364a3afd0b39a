package http

import (
	"github.com/gofiber/fiber/v2"

	"curridata/internal/store"
)

// listClassDeptMapsHandler returns all class-to-department mappings.
func listClassDeptMapsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	mappings, err := st.ListClassDeptMaps(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ListClassDeptMapsResponse{
			Success: false,
			Code:    "MAPPING_LIST_FAILED",
			Error:   err.Error(),
		})
	}

	items := make([]ClassDeptMapItem, 0, len(mappings))
	for _, m := range mappings {
		items = append(items, ClassDeptMapItem{ID: m.ID, Class: m.Class, DeptShort: m.DeptShort})
	}

	return c.Status(fiber.StatusOK).JSON(ListClassDeptMapsResponse{
		Success:  true,
		Mappings: items,
	})
}

func createClassDeptMapHandler(c *fiber.Ctx) error {
	var req ClassDeptMapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}
	if req.Class == "" || req.DeptShort == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required fields 'class' and 'deptShort'",
		})
	}

	st := c.Locals("store").(*store.Store)
	if err := st.CreateClassDeptMap(c.Context(), store.ClassDeptMap{Class: req.Class, DeptShort: req.DeptShort}); err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "class mapping already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "MAPPING_CREATE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Class mapping added successfully.",
	})
}

func updateClassDeptMapHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	var req ClassDeptMapRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.UpdateClassDeptMap(c.Context(), id, store.ClassDeptMap{Class: req.Class, DeptShort: req.DeptShort})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
				Success: false,
				Code:    "CONFLICT",
				Error:   "class mapping already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "MAPPING_UPDATE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "class mapping not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Class mapping updated successfully.",
	})
}

func deleteClassDeptMapHandler(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return nil
	}

	st := c.Locals("store").(*store.Store)
	affected, err := st.DeleteClassDeptMap(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "MAPPING_DELETE_FAILED",
			Error:   err.Error(),
		})
	}
	if affected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "class mapping not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Success: true,
		Message: "Class mapping deleted successfully.",
	})
}

// datasetHandler returns the combined class/department/agent dataset
// consumed by the class-converter client.
func datasetHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	rows, err := st.GetDataset(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(DatasetResponse{
			Success: false,
			Code:    "DATASET_FAILED",
			Error:   err.Error(),
		})
	}

	items := make([]DatasetItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, DatasetItem{
			Class:        r.Class,
			DeptShort:    r.DeptShort,
			Dept:         r.Dept.String,
			College:      r.College.String,
			CollegeShort: r.CollegeShort.String,
			StudyType:    r.StudyType.String,
			AgentName:    r.AgentName.String,
			AgentExt:     r.AgentExt.String,
			AgentEmail:   r.AgentEmail.String,
			CAgentName:   r.CAgentName.String,
			CAgentExt:    r.CAgentExt.String,
			CAgentEmail:  r.CAgentEmail.String,
		})
	}

	return c.Status(fiber.StatusOK).JSON(DatasetResponse{
		Success: true,
		Rows:    items,
	})
}
