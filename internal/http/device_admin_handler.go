package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// DeviceRegistrar 设备注册映射接口
type DeviceRegistrar interface {
	Register(ctx context.Context, deviceID, userID string) error
}

// DeviceAdminHandler 设备注册映射管理
type DeviceAdminHandler struct {
	devices DeviceRegistrar
	users   UserDirectory
	logger  *zap.Logger
}

func NewDeviceAdminHandler(devices DeviceRegistrar, users UserDirectory, logger *zap.Logger) *DeviceAdminHandler {
	return &DeviceAdminHandler{devices: devices, users: users, logger: logger}
}

type registerOwnerRequest struct {
	UserID string `json:"userId"`
}

// PUT /admin/api/v1/devices/{deviceId}/owner
// 注册或更新设备到用户的映射（upsert）
func (h *DeviceAdminHandler) RegisterOwner(w http.ResponseWriter, r *http.Request, deviceID string) {
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("deviceId is required"))
		return
	}

	var req registerOwnerRequest
	if err := readBodyJSON(r, 64<<10, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("userId is required"))
		return
	}

	// 映射目标必须是已存在的用户
	user, err := h.users.GetUser(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error("Failed to look up user", zap.String("user_id", req.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to look up user"))
		return
	}
	if user == nil {
		writeJSON(w, http.StatusBadRequest, Fail("unknown user"))
		return
	}

	if err := h.devices.Register(r.Context(), deviceID, req.UserID); err != nil {
		h.logger.Error("Failed to register device",
			zap.String("device_id", deviceID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, Fail("failed to register device"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{
		"deviceId": deviceID,
		"userId":   req.UserID,
	}))
}
