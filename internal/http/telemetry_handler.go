package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
	"lifeband-data/internal/service"
)

// TelemetryQueries 遥测查询接口
type TelemetryQueries interface {
	Latest(ctx context.Context, userID string) (*domain.TelemetrySample, error)
	History(ctx context.Context, userID string, req service.HistoryRequest) (*domain.TelemetryPage, error)
	Analytics(ctx context.Context, userID, period string) (*domain.TelemetryAnalytics, error)
}

// TelemetryHandler 应用端遥测查询
type TelemetryHandler struct {
	queries TelemetryQueries
	users   UserDirectory
	logger  *zap.Logger
}

func NewTelemetryHandler(queries TelemetryQueries, users UserDirectory, logger *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{queries: queries, users: users, logger: logger}
}

// GET /api/v1/telemetry/latest
// 无数据时 result 为 null（前端据此区分"从未上报"）
func (h *TelemetryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	sample, err := h.queries.Latest(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load latest sample", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load latest sample"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(sample))
}

// GET /api/v1/telemetry/history
// params:
// - limit? number (default 20, max 100)
// - skip? number (default 0)
// - startDate? / endDate? RFC3339 或 epoch 毫秒
func (h *TelemetryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	req := service.HistoryRequest{
		Limit:     parseInt(r.URL.Query().Get("limit"), 20),
		Skip:      parseInt(r.URL.Query().Get("skip"), 0),
		StartDate: parseTime(r.URL.Query().Get("startDate")),
		EndDate:   parseTime(r.URL.Query().Get("endDate")),
	}

	page, err := h.queries.History(r.Context(), userID, req)
	if err != nil {
		h.logger.Error("Failed to load telemetry history", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load telemetry history"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(page))
}

// GET /api/v1/telemetry/analytics?period=24h
func (h *TelemetryHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "24h"
	}

	analytics, err := h.queries.Analytics(r.Context(), userID, period)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			writeJSON(w, http.StatusBadRequest, Fail("period must be one of 1h, 24h, 7d, 30d"))
			return
		}
		h.logger.Error("Failed to compute telemetry analytics", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to compute analytics"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(analytics))
}
