package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// TelemetryRepository 遥测样本仓库
type TelemetryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTelemetryRepository 创建遥测样本仓库
func NewTelemetryRepository(db *sql.DB, logger *zap.Logger) *TelemetryRepository {
	return &TelemetryRepository{
		db:     db,
		logger: logger,
	}
}

// telemetryColumns SELECT 列顺序，与 scanSample 对应
const telemetryColumns = `
	id, user_id, device_id,
	acc_x, acc_y, acc_z,
	gyro_x, gyro_y, gyro_z,
	heart_rate, temperature, battery_level,
	latitude, longitude, accuracy,
	emergency_triggered, fall_detected,
	sample_time, created_at
`

// Insert 写入遥测样本，回填生成的 id
func (r *TelemetryRepository) Insert(ctx context.Context, sample *domain.TelemetrySample) error {
	query := `
		INSERT INTO telemetry_samples (
			user_id, device_id,
			acc_x, acc_y, acc_z,
			gyro_x, gyro_y, gyro_z,
			heart_rate, temperature, battery_level,
			latitude, longitude, accuracy,
			emergency_triggered, fall_detected,
			sample_time, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)
		RETURNING id
	`

	var latitude, longitude, accuracy *float64
	if sample.Location != nil {
		latitude = &sample.Location.Latitude
		longitude = &sample.Location.Longitude
		accuracy = sample.Location.Accuracy
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		sample.UserID,
		sample.DeviceID,
		sample.Accelerometer.X,
		sample.Accelerometer.Y,
		sample.Accelerometer.Z,
		sample.Gyroscope.X,
		sample.Gyroscope.Y,
		sample.Gyroscope.Z,
		sample.HeartRate,
		sample.Temperature,
		sample.BatteryLevel,
		latitude,
		longitude,
		accuracy,
		sample.EmergencyTriggered,
		sample.FallDetected,
		sample.SampleTime,
		sample.CreatedAt,
	).Scan(&sample.ID)

	if err != nil {
		return fmt.Errorf("failed to insert telemetry sample: %w", err)
	}

	return nil
}

// Latest 获取用户最新的遥测样本，无数据时返回 (nil, nil)
func (r *TelemetryRepository) Latest(ctx context.Context, userID string) (*domain.TelemetrySample, error) {
	query := `
		SELECT ` + telemetryColumns + `
		FROM telemetry_samples
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	sample, err := scanSample(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest telemetry sample: %w", err)
	}

	return sample, nil
}

// TelemetryRangeFilter 历史查询过滤条件
type TelemetryRangeFilter struct {
	StartTime *time.Time // created_at >= StartTime
	EndTime   *time.Time // created_at <= EndTime
	Limit     int
	Offset    int
}

// Range 分页查询用户的遥测历史（按创建时间倒序）
// 不存在的用户返回空结果集，不报错
func (r *TelemetryRepository) Range(ctx context.Context, userID string, filter TelemetryRangeFilter) (*domain.TelemetryPage, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if filter.StartTime != nil {
		args = append(args, *filter.StartTime)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndTime != nil {
		args = append(args, *filter.EndTime)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	// 总数
	var total int
	countQuery := "SELECT COUNT(*) FROM telemetry_samples " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count telemetry samples: %w", err)
	}

	// 分页数据
	args = append(args, filter.Limit, filter.Offset)
	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM telemetry_samples
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, telemetryColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query telemetry samples: %w", err)
	}
	defer rows.Close()

	samples := make([]domain.TelemetrySample, 0)
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan telemetry sample: %w", err)
		}
		samples = append(samples, *sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate telemetry samples: %w", err)
	}

	return &domain.TelemetryPage{
		Samples: samples,
		Total:   total,
		HasMore: filter.Offset+filter.Limit < total,
	}, nil
}

// DeleteOlderThan 删除创建时间早于 cutoff 的样本，返回删除数量
// 保留清理任务调用；与并发写入无需协调（新写入的 created_at 恒为当前时间）
func (r *TelemetryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM telemetry_samples WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired telemetry samples: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted rows count: %w", err)
	}

	return deleted, nil
}

// DeleteAllForUser 删除用户全部遥测样本（数据填充/测试用）
func (r *TelemetryRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM telemetry_samples WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete telemetry samples: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted rows count: %w", err)
	}

	return deleted, nil
}

// AggregateWindow 聚合窗口内的统计指标（窗口起点 since 到当前）
// 无数据时各均值为 nil，计数为 0
func (r *TelemetryRepository) AggregateWindow(ctx context.Context, userID string, since time.Time) (*domain.TelemetryAnalytics, error) {
	query := `
		SELECT
			AVG(heart_rate), MIN(heart_rate), MAX(heart_rate),
			AVG(temperature), MIN(temperature), MAX(temperature),
			AVG(battery_level),
			COUNT(*) FILTER (WHERE emergency_triggered),
			COUNT(*) FILTER (WHERE fall_detected),
			COUNT(*)
		FROM telemetry_samples
		WHERE user_id = $1 AND created_at >= $2
	`

	analytics := &domain.TelemetryAnalytics{}
	var avgHR, minHR, maxHR, avgTemp, minTemp, maxTemp, avgBattery sql.NullFloat64

	err := r.db.QueryRowContext(ctx, query, userID, since).Scan(
		&avgHR, &minHR, &maxHR,
		&avgTemp, &minTemp, &maxTemp,
		&avgBattery,
		&analytics.EmergencyCount,
		&analytics.FallCount,
		&analytics.TotalReadings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate telemetry window: %w", err)
	}

	analytics.AvgHeartRate = nullableFloat(avgHR)
	analytics.MinHeartRate = nullableFloat(minHR)
	analytics.MaxHeartRate = nullableFloat(maxHR)
	analytics.AvgTemperature = nullableFloat(avgTemp)
	analytics.MinTemperature = nullableFloat(minTemp)
	analytics.MaxTemperature = nullableFloat(maxTemp)
	analytics.AvgBatteryLevel = nullableFloat(avgBattery)

	return analytics, nil
}

// rowScanner QueryRow / rows.Next 的公共抽象
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSample 按 telemetryColumns 的列顺序扫描一行
func scanSample(row rowScanner) (*domain.TelemetrySample, error) {
	var sample domain.TelemetrySample
	var heartRate, temperature, batteryLevel sql.NullFloat64
	var latitude, longitude, accuracy sql.NullFloat64

	err := row.Scan(
		&sample.ID,
		&sample.UserID,
		&sample.DeviceID,
		&sample.Accelerometer.X,
		&sample.Accelerometer.Y,
		&sample.Accelerometer.Z,
		&sample.Gyroscope.X,
		&sample.Gyroscope.Y,
		&sample.Gyroscope.Z,
		&heartRate,
		&temperature,
		&batteryLevel,
		&latitude,
		&longitude,
		&accuracy,
		&sample.EmergencyTriggered,
		&sample.FallDetected,
		&sample.SampleTime,
		&sample.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sample.HeartRate = nullableFloat(heartRate)
	sample.Temperature = nullableFloat(temperature)
	sample.BatteryLevel = nullableFloat(batteryLevel)

	if latitude.Valid && longitude.Valid {
		sample.Location = &domain.Location{
			Latitude:  latitude.Float64,
			Longitude: longitude.Float64,
			Accuracy:  nullableFloat(accuracy),
		}
	}

	return &sample, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
