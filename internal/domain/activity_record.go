package domain

import "time"

// 活动类型（封闭集合）
const (
	ActivityTypeSync      = "sync"
	ActivityTypeLocation  = "location"
	ActivityTypeEmergency = "emergency"
	ActivityTypeSystem    = "system"
)

// ActivityTypes 全部活动类型（计数统计必须覆盖每一项）
var ActivityTypes = []string{
	ActivityTypeSync,
	ActivityTypeLocation,
	ActivityTypeEmergency,
	ActivityTypeSystem,
}

// 活动状态（封闭集合）
const (
	ActivityStatusSuccess = "success"
	ActivityStatusWarning = "warning"
	ActivityStatusError   = "error"
	ActivityStatusNormal  = "normal"
)

// ActivityMetadata 活动附加信息
// 无固定结构：不同触发规则携带的上下文不同（设备ID、向量、位置、计算量值、时间戳等）
type ActivityMetadata map[string]any

// ActivityRecord 活动记录领域模型（对应 activity_records 表）
// 同时作为审计日志和统计数据来源；遥测样本会过期，触发的紧急信号
// 必须在入库时镜像到活动记录，活动记录不自动过期
type ActivityRecord struct {
	// 主键
	ID string `json:"id" db:"record_id"` // UUID, PRIMARY KEY

	// 归属
	UserID string `json:"userId" db:"user_id"` // UUID, NOT NULL

	// 类型和状态
	Type   string `json:"type" db:"type"`   // sync/location/emergency/system
	Status string `json:"status" db:"status"` // success/warning/error/normal, DEFAULT 'normal'

	// 描述
	Message string `json:"message" db:"message"` // TEXT

	// 附加信息
	Metadata ActivityMetadata `json:"metadata,omitempty" db:"metadata"` // JSONB

	// 时间
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ActivityPage 活动记录分页结果
type ActivityPage struct {
	Records []ActivityRecord `json:"records"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}

// ActivityCounts 按类型统计（所有类型恒定存在，无记录时为 0）
type ActivityCounts struct {
	All       int `json:"all"`
	Sync      int `json:"sync"`
	Location  int `json:"location"`
	Emergency int `json:"emergency"`
	System    int `json:"system"`
}
