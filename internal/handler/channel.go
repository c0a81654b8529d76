package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/model"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/service"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/youtube"
)

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// List handles GET /api/channels
func (h *ChannelHandler) List(c fiber.Ctx) error {
	channels, err := h.svc.ListChannels(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}

	return c.JSON(fiber.Map{"channels": channels})
}

// Add handles POST /api/channels
func (h *ChannelHandler) Add(c fiber.Ctx) error {
	var req model.AddChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	identifier, errMsg := middleware.ValidateIdentifier(req.Identifier)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	label, errMsg := middleware.ValidateLabel(req.Label)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	switch req.Strategy {
	case "", model.StrategyTimeWindow, model.StrategyRecentCount, model.StrategyHybrid:
	default:
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_STRATEGY",
			"Invalid strategy. Must be one of: time_window, recent_count, hybrid")
	}

	if req.WindowDays < 0 || req.RecentN < 0 || req.MaxVideos < 0 || req.CommentsPerVideo < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD",
			"Tracking overrides must not be negative")
	}

	ch, err := h.svc.AddChannel(c.Context(), identifier, model.TrackedChannel{
		Label:            label,
		Strategy:         req.Strategy,
		WindowDays:       req.WindowDays,
		RecentN:          req.RecentN,
		MaxVideos:        req.MaxVideos,
		CommentsPerVideo: req.CommentsPerVideo,
	})
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found on YouTube")
		}
		if errors.Is(err, service.ErrYouTubeDisabled) {
			return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "YOUTUBE_DISABLED",
				"YouTube API key is not configured")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add channel")
	}

	return c.Status(fiber.StatusCreated).JSON(ch)
}

// SetActive handles PATCH /api/channels/:channelId
func (h *ChannelHandler) SetActive(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.SetActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Active == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "active is required")
	}

	if err := h.svc.SetActive(c.Context(), channelID, *req.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel is not tracked")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update channel")
	}

	return c.JSON(fiber.Map{"channelId": channelID, "active": *req.Active})
}
