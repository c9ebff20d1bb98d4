package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// ActivityRepository 活动记录仓库
type ActivityRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewActivityRepository 创建活动记录仓库
func NewActivityRepository(db *sql.DB, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Create 写入活动记录
// ID 为空时生成 UUID；CreatedAt 为零值时取当前时间；记录写入后不可变
func (r *ActivityRepository) Create(ctx context.Context, record *domain.ActivityRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = domain.ActivityStatusNormal
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = domain.ActivityMetadata{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal activity metadata: %w", err)
	}

	query := `
		INSERT INTO activity_records (
			record_id, user_id, type, status, message, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.Type,
		record.Status,
		record.Message,
		metadataJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity record: %w", err)
	}

	return nil
}

// List 分页查询用户的活动记录（按创建时间倒序），typeFilter 为空时不过滤类型
func (r *ActivityRepository) List(ctx context.Context, userID, typeFilter string, limit, offset int) (*domain.ActivityPage, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if typeFilter != "" {
		args = append(args, typeFilter)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM activity_records " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count activity records: %w", err)
	}

	args = append(args, limit, offset)
	pageQuery := fmt.Sprintf(`
		SELECT record_id, user_id, type, status, message, metadata, created_at
		FROM activity_records
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var record domain.ActivityRecord
		var metadataJSON []byte

		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Type,
			&record.Status,
			&record.Message,
			&metadataJSON,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				// 元数据损坏不阻塞列表，记录后跳过该字段
				r.logger.Warn("Failed to unmarshal activity metadata",
					zap.String("record_id", record.ID),
					zap.Error(err),
				)
				record.Metadata = nil
			}
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity records: %w", err)
	}

	return &domain.ActivityPage{
		Records: records,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

// CountsByType 按类型统计用户的活动记录数
// 四个固定类型恒定存在，无记录的类型为 0
func (r *ActivityRepository) CountsByType(ctx context.Context, userID string) (*domain.ActivityCounts, error) {
	query := `
		SELECT type, COUNT(*)
		FROM activity_records
		WHERE user_id = $1
		GROUP BY type
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count activity records by type: %w", err)
	}
	defer rows.Close()

	counts := &domain.ActivityCounts{}
	for rows.Next() {
		var activityType string
		var count int
		if err := rows.Scan(&activityType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan activity counts: %w", err)
		}

		switch activityType {
		case domain.ActivityTypeSync:
			counts.Sync = count
		case domain.ActivityTypeLocation:
			counts.Location = count
		case domain.ActivityTypeEmergency:
			counts.Emergency = count
		case domain.ActivityTypeSystem:
			counts.System = count
		}
		counts.All += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity counts: %w", err)
	}

	return counts, nil
}
