package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// UserRepository 用户只读仓库
// 账号管理由用户服务负责，本服务只做存在性校验和基础信息读取
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetUser 根据 user_id 获取用户，不存在时返回 (nil, nil)
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	var user domain.User
	var phone sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, phone FROM users WHERE user_id = $1`, userID).
		Scan(&user.UserID, &user.Name, &phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.Phone = phone.String

	return &user, nil
}
