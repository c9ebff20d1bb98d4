package service

import (
	"context"
	"errors"
	"time"

	"lifeband-data/internal/domain"
	"lifeband-data/internal/repository"
)

// 服务层错误
var (
	// ErrOwnerUnresolved 无法将设备映射到用户，拒绝写入
	ErrOwnerUnresolved = errors.New("device owner unresolved")
	// ErrNoLocationAvailable 用户没有带位置的遥测样本
	ErrNoLocationAvailable = errors.New("no location available")
	// ErrInvalidPeriod 聚合窗口参数非法
	ErrInvalidPeriod = errors.New("invalid analytics period")
)

// TelemetryStore 遥测样本存储接口（单元测试中可替换）
type TelemetryStore interface {
	Insert(ctx context.Context, sample *domain.TelemetrySample) error
	Latest(ctx context.Context, userID string) (*domain.TelemetrySample, error)
	Range(ctx context.Context, userID string, filter repository.TelemetryRangeFilter) (*domain.TelemetryPage, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	AggregateWindow(ctx context.Context, userID string, since time.Time) (*domain.TelemetryAnalytics, error)
}

// ActivityStore 活动记录存储接口
type ActivityStore interface {
	Create(ctx context.Context, record *domain.ActivityRecord) error
	List(ctx context.Context, userID, typeFilter string, limit, offset int) (*domain.ActivityPage, error)
	CountsByType(ctx context.Context, userID string) (*domain.ActivityCounts, error)
}

// DeviceResolver 设备归属解析接口
type DeviceResolver interface {
	ResolveOwner(ctx context.Context, deviceID string) (string, error)
	Register(ctx context.Context, deviceID, userID string) error
}

// SampleCache 最新样本缓存接口
type SampleCache interface {
	SetLatest(ctx context.Context, userID string, sample *domain.TelemetrySample) error
	GetLatest(ctx context.Context, userID string) (*domain.TelemetrySample, error)
}

// ContactStore 紧急联系人存储接口
type ContactStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error)
}

// UserStore 用户只读存储接口
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// Deliverer 消息投递接口（由消息通道连接器实现）
type Deliverer interface {
	Deliver(ctx context.Context, to, message string) (string, error)
}
