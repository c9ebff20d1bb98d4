package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DeviceRepository 设备注册映射仓库
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceRepository 创建设备注册映射仓库
func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

// ResolveOwner 根据设备ID解析归属用户，未注册时返回 ("", nil)
func (r *DeviceRepository) ResolveOwner(ctx context.Context, deviceID string) (string, error) {
	if deviceID == "" {
		return "", fmt.Errorf("device_id is required")
	}

	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM device_registrations WHERE device_id = $1`, deviceID).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve device owner: %w", err)
	}

	return userID, nil
}

// Register 注册或更新设备到用户的映射
func (r *DeviceRepository) Register(ctx context.Context, deviceID, userID string) error {
	if deviceID == "" {
		return fmt.Errorf("device_id is required")
	}
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}

	query := `
		INSERT INTO device_registrations (device_id, user_id, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id) DO UPDATE SET user_id = EXCLUDED.user_id, registered_at = EXCLUDED.registered_at
	`

	_, err := r.db.ExecContext(ctx, query, deviceID, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	r.logger.Info("Device registered",
		zap.String("device_id", deviceID),
		zap.String("user_id", userID),
	)

	return nil
}
