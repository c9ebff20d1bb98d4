package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterIngestRoutes 注册设备端入栈路由
func (r *Router) RegisterIngestRoutes(h *IngestHandler) {
	r.Handle("/device/api/v1/telemetry", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Ingest(w, req)
	})

	r.Handle("/device/api/v1/telemetry/push", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.IngestPush(w, req)
	})
}

// RegisterTelemetryRoutes 注册应用端遥测查询路由
func (r *Router) RegisterTelemetryRoutes(h *TelemetryHandler) {
	r.Handle("/api/v1/telemetry/latest", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetLatest(w, req)
	})

	r.Handle("/api/v1/telemetry/history", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetHistory(w, req)
	})

	r.Handle("/api/v1/telemetry/analytics", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetAnalytics(w, req)
	})
}

// RegisterActivityRoutes 注册活动记录路由
func (r *Router) RegisterActivityRoutes(h *ActivityHandler) {
	r.Handle("/api/v1/activities", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, req)
	})

	r.Handle("/api/v1/activities/stats", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Stats(w, req)
	})

	r.Handle("/api/v1/activities/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, req)
	})
}

// RegisterEmergencyRoutes 注册紧急位置分享路由
func (r *Router) RegisterEmergencyRoutes(h *EmergencyHandler) {
	r.Handle("/api/v1/emergency/share-location", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ShareLocation(w, req)
	})
}

// RegisterDeviceAdminRoutes 注册设备管理路由
// devices/{deviceId}/owner
func (r *Router) RegisterDeviceAdminRoutes(h *DeviceAdminHandler) {
	r.Handle("/admin/api/v1/devices/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/admin/api/v1/devices/")
		deviceID, action, ok := strings.Cut(rest, "/")
		if !ok || action != "owner" || deviceID == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RegisterOwner(w, req, deviceID)
	})
}
