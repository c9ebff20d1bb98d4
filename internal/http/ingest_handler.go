package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lifeband-data/internal/pipeline"
	"lifeband-data/internal/service"
)

// Ingester 遥测入栈接口
type Ingester interface {
	Ingest(ctx context.Context, payload pipeline.RawPayload, device service.DeviceContext) (*service.IngestResult, error)
}

// IngestHandler 设备端遥测入栈
// 设备固件侧约定的响应格式（不使用 Result 封装）：
//   - 成功 201: {status, message, dataId, analysis{...}, timestamp}
//   - 失败 500: {status: "error", message, error}
type IngestHandler struct {
	ingester Ingester
	logger   *zap.Logger
}

func NewIngestHandler(ingester Ingester, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{ingester: ingester, logger: logger}
}

type ingestResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	DataID    int64            `json:"dataId"`
	Analysis  service.Analysis `json:"analysis"`
	Timestamp int64            `json:"timestamp"`
}

// ingestPushResponse 推送变体恒定携带触发的规则类别（可为空列表）
type ingestPushResponse struct {
	ingestResponse
	ActivitiesTriggered []string `json:"activitiesTriggered"`
}

type ingestErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// POST /device/api/v1/telemetry
// 基础入栈：载荷任意字段可缺失，设备身份取 X-Device-Id 头或载荷 deviceId
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

// POST /device/api/v1/telemetry/push
// 推送变体：显式 deviceId、可选 userId、设备端断言的标志；响应附带触发的规则类别
func (h *IngestHandler) IngestPush(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

func (h *IngestHandler) handle(w http.ResponseWriter, r *http.Request, includeTriggered bool) {
	var payload pipeline.RawPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, ingestErrorResponse{
			Status:  "error",
			Message: "Invalid request body",
			Error:   err.Error(),
		})
		return
	}
	if payload == nil {
		payload = pipeline.RawPayload{}
	}

	device := service.DeviceContext{
		DeviceID: r.Header.Get("X-Device-Id"),
	}
	if deviceID, ok := payload["deviceId"].(string); ok && deviceID != "" {
		device.DeviceID = deviceID
	}
	if userID, ok := payload["userId"].(string); ok {
		device.UserID = userID
	}

	result, err := h.ingester.Ingest(r.Context(), payload, device)
	if err != nil {
		if errors.Is(err, service.ErrOwnerUnresolved) {
			writeJSON(w, http.StatusBadRequest, ingestErrorResponse{
				Status:  "error",
				Message: "Device is not registered to a user",
				Error:   err.Error(),
			})
			return
		}
		h.logger.Error("Telemetry ingest failed",
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, ingestErrorResponse{
			Status:  "error",
			Message: "Failed to process telemetry",
			Error:   err.Error(),
		})
		return
	}

	resp := ingestResponse{
		Status:    "success",
		Message:   "Telemetry received",
		DataID:    result.Sample.ID,
		Analysis:  result.Analysis,
		Timestamp: time.Now().UnixMilli(),
	}

	if includeTriggered {
		triggered := result.ActivitiesTriggered
		if triggered == nil {
			triggered = []string{}
		}
		writeJSON(w, http.StatusCreated, ingestPushResponse{
			ingestResponse:      resp,
			ActivitiesTriggered: triggered,
		})
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
