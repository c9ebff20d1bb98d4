package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// UserDirectory 用户存在性校验接口
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// requireUser 从网关注入的 X-User-Id 头解析用户并校验存在性
// 认证由网关完成，本服务只信任该头；校验失败时已写入响应，返回 ("", false)
func requireUser(w http.ResponseWriter, r *http.Request, users UserDirectory, logger *zap.Logger) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, Fail("missing X-User-Id header"))
		return "", false
	}

	user, err := users.GetUser(r.Context(), userID)
	if err != nil {
		logger.Error("Failed to look up user", zap.String("user_id", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to look up user"))
		return "", false
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, Fail("unknown user"))
		return "", false
	}

	return userID, true
}
