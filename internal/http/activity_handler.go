package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// ActivityQueries 活动记录查询接口
type ActivityQueries interface {
	List(ctx context.Context, userID, typeFilter string, limit, offset int) (*domain.ActivityPage, error)
	CountsByType(ctx context.Context, userID string) (*domain.ActivityCounts, error)
}

// exportLimit 导出单次最多拉取的记录数
const exportLimit = 1000

// ActivityHandler 应用端活动记录查询与导出
type ActivityHandler struct {
	activities ActivityQueries
	users      UserDirectory
	logger     *zap.Logger
}

func NewActivityHandler(activities ActivityQueries, users UserDirectory, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, users: users, logger: logger}
}

// GET /api/v1/activities
// params:
// - type? string (sync/location/emergency/system，缺省为全部)
// - limit? number (default 20, max 100)
// - skip? number (default 0)
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !validActivityType(typeFilter) {
		writeJSON(w, http.StatusBadRequest, Fail("type must be one of sync, location, emergency, system"))
		return
	}

	limit := parseInt(r.URL.Query().Get("limit"), 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	skip := parseInt(r.URL.Query().Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	page, err := h.activities.List(r.Context(), userID, typeFilter, limit, skip)
	if err != nil {
		h.logger.Error("Failed to list activities", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list activities"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(page))
}

// GET /api/v1/activities/stats
// 按类型统计，所有类型恒定存在（无记录时为 0）
func (h *ActivityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	counts, err := h.activities.CountsByType(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to count activities", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to count activities"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(counts))
}

// GET /api/v1/activities/export
// 导出活动记录为 xlsx 附件，type 过滤参数与列表接口一致
func (h *ActivityHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	typeFilter := r.URL.Query().Get("type")
	if typeFilter != "" && !validActivityType(typeFilter) {
		writeJSON(w, http.StatusBadRequest, Fail("type must be one of sync, location, emergency, system"))
		return
	}

	page, err := h.activities.List(r.Context(), userID, typeFilter, exportLimit, 0)
	if err != nil {
		h.logger.Error("Failed to load activities for export", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to load activities"))
		return
	}

	data, err := GenerateActivityExport(page.Records)
	if err != nil {
		h.logger.Error("Failed to generate activity export", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("activity-log-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func validActivityType(activityType string) bool {
	for _, known := range domain.ActivityTypes {
		if activityType == known {
			return true
		}
	}
	return false
}
