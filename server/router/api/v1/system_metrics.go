package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// GetMetricsOverview returns aggregated pipeline metrics for a time range.
// GET /api/v1/system/metrics/overview?range=24h
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return unavailable(c, "metrics")
	}
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	window, err := parseTimeRange(timeRange)
	if err != nil {
		slog.Warn("invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return invalidArgument(c, "invalid time range")
	}

	overview := s.Metrics.Overview(c.Request().Context(), window)
	return c.JSON(http.StatusOK, map[string]any{
		"time_range": timeRange,
		"overview":   overview,
	})
}

// parseTimeRange parses a time range string into a window length.
func parseTimeRange(timeRange string) (time.Duration, error) {
	switch timeRange {
	case "1h":
		return time.Hour, nil
	case "24h":
		return 24 * time.Hour, nil
	case "7d":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid time range: %s (valid: 1h, 24h, 7d)", timeRange)
	}
}
