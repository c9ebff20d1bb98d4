package domain

import "time"

// DeviceRegistration 设备注册映射（对应 device_registrations 表）
// 未认证的设备遥测通过此映射解析归属用户；
// 未注册且请求未携带 userId 的设备数据会被拒绝
type DeviceRegistration struct {
	// 主键
	DeviceID string `json:"deviceId" db:"device_id"` // VARCHAR(100), PRIMARY KEY

	// 归属
	UserID string `json:"userId" db:"user_id"` // UUID, NOT NULL

	// 时间
	RegisteredAt time.Time `json:"registeredAt" db:"registered_at"`
}

// User 用户领域模型（只读投影，账号管理由用户服务负责）
type User struct {
	UserID string `json:"userId" db:"user_id"` // UUID, PRIMARY KEY
	Name   string `json:"name" db:"name"`    // VARCHAR(100)
	Phone  string `json:"phone,omitempty" db:"phone"`   // VARCHAR(25), nullable
}
