package handler

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/nicolegu/YouTube-Channel-Analysis/internal/middleware"
	"github.com/nicolegu/YouTube-Channel-Analysis/internal/service"
)

type ExportHandler struct {
	svc *service.AnalyticsService
}

func NewExportHandler(svc *service.AnalyticsService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Engagement handles GET /api/export/engagement.csv
// Streams the daily engagement series as a CSV download, honoring the
// same channel_id/from/to filters as the JSON endpoint.
func (h *ExportHandler) Engagement(c fiber.Ctx) error {
	f, errMsg := parseFilter(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	series, err := h.svc.EngagementSeries(c.Context(), f)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute engagement series")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "engagement_rate", "videos"}); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode CSV")
	}
	for _, p := range series {
		record := []string{
			p.Date,
			strconv.FormatFloat(p.EngagementRate, 'f', 6, 64),
			strconv.Itoa(p.Videos),
		}
		if err := w.Write(record); err != nil {
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode CSV")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode CSV")
	}

	filename := "engagement_" + time.Now().UTC().Format("20060102") + ".csv"
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(buf.Bytes())
}
