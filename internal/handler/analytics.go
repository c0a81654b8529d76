package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/repository"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// parseFilter reads the query parameters shared by the analytics
// endpoints. Everything is optional; malformed values come back as an
// error message for a 400.
func parseFilter(c fiber.Ctx) (repository.AnalyticsFilter, string) {
	var f repository.AnalyticsFilter

	if raw := fiber.Query[string](c, "channel_id"); raw != "" {
		id, errMsg := middleware.ValidateChannelID(raw)
		if errMsg != "" {
			return f, errMsg
		}
		f.ChannelID = id
	}

	from, errMsg := middleware.ParseTimeParam("from", fiber.Query[string](c, "from"))
	if errMsg != "" {
		return f, errMsg
	}
	to, errMsg := middleware.ParseTimeParam("to", fiber.Query[string](c, "to"))
	if errMsg != "" {
		return f, errMsg
	}
	if from != nil && to != nil && to.Before(*from) {
		return f, "to must not precede from"
	}
	f.From = from
	f.To = to

	brand, errMsg := middleware.ValidateName("brand", fiber.Query[string](c, "brand"))
	if errMsg != "" {
		return f, errMsg
	}
	f.Brand = brand

	category, errMsg := middleware.ValidateName("category", fiber.Query[string](c, "category"))
	if errMsg != "" {
		return f, errMsg
	}
	f.Category = category

	return f, ""
}

// Engagement handles GET /api/analytics/engagement
func (h *AnalyticsHandler) Engagement(c fiber.Ctx) error {
	f, errMsg := parseFilter(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	series, err := h.svc.EngagementSeries(c.Context(), f)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute engagement series")
	}

	return c.JSON(fiber.Map{"series": series})
}

// TopVideos handles GET /api/analytics/top-videos
func (h *AnalyticsHandler) TopVideos(c fiber.Ctx) error {
	f, errMsg := parseFilter(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"), 10, 50)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	videos, err := h.svc.TopVideos(c.Context(), f, limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rank videos")
	}

	return c.JSON(fiber.Map{"videos": videos})
}

// Brands handles GET /api/analytics/brands
func (h *AnalyticsHandler) Brands(c fiber.Ctx) error {
	f, errMsg := parseFilter(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"), 20, 100)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	brands, err := h.svc.BrandStats(c.Context(), f, limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate brand mentions")
	}

	return c.JSON(fiber.Map{"brands": brands})
}

// Categories handles GET /api/analytics/categories
func (h *AnalyticsHandler) Categories(c fiber.Ctx) error {
	f, errMsg := parseFilter(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	categories, err := h.svc.CategoryStats(c.Context(), f)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to aggregate categories")
	}

	return c.JSON(fiber.Map{"categories": categories})
}

// Questions handles GET /api/analytics/questions
func (h *AnalyticsHandler) Questions(c fiber.Ctx) error {
	var channelID string
	if raw := fiber.Query[string](c, "channel_id"); raw != "" {
		id, errMsg := middleware.ValidateChannelID(raw)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
		channelID = id
	}

	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"), 20, 100)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	questions, err := h.svc.RecentQuestions(c.Context(), channelID, limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list questions")
	}

	return c.JSON(fiber.Map{"questions": questions})
}

// ChannelVideos handles GET /api/channels/:channelId/videos
func (h *AnalyticsHandler) ChannelVideos(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"), 50, 200)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	videos, err := h.svc.ChannelVideos(c.Context(), channelID, limit)
	if err != nil {
		if errors.Is(err, service.ErrChannelUnknown) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list videos")
	}

	return c.JSON(fiber.Map{"videos": videos})
}
