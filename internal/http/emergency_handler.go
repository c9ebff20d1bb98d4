package httpapi

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lifeband-data/internal/service"
)

// LocationSharer 位置分享接口
type LocationSharer interface {
	ShareLocation(ctx context.Context, userID string) (*service.ShareLocationResult, error)
}

// EmergencyHandler 紧急位置分享
type EmergencyHandler struct {
	dispatcher LocationSharer
	users      UserDirectory
	logger     *zap.Logger
}

func NewEmergencyHandler(dispatcher LocationSharer, users UserDirectory, logger *zap.Logger) *EmergencyHandler {
	return &EmergencyHandler{dispatcher: dispatcher, users: users, logger: logger}
}

// POST /api/v1/emergency/share-location
// 无请求体；逐个联系人投递，单个失败体现在结果列表中，不影响整体 200
func (h *EmergencyHandler) ShareLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.users, h.logger)
	if !ok {
		return
	}

	result, err := h.dispatcher.ShareLocation(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoLocationAvailable) {
			writeJSON(w, http.StatusNotFound, Fail("no location available for this user"))
			return
		}
		h.logger.Error("Failed to share location", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to share location"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(result))
}
