package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
)

type RunsHandler struct {
	runs *repository.RunRepo
}

func NewRunsHandler(runs *repository.RunRepo) *RunsHandler {
	return &RunsHandler{runs: runs}
}

// List handles GET /api/runs
func (h *RunsHandler) List(c fiber.Ctx) error {
	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"), 20, 100)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	runs, err := h.runs.ListRuns(c.Context(), limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list runs")
	}
	if runs == nil {
		runs = []model.Run{}
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// Get handles GET /api/runs/:runId
func (h *RunsHandler) Get(c fiber.Ctx) error {
	runID, err := uuid.Parse(c.Params("runId"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "runId must be a UUID")
	}

	run, err := h.runs.GetRun(c.Context(), runID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load run")
	}
	if run == nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Run not found")
	}

	return c.JSON(run)
}
