package domain

// EmergencyContact 紧急联系人领域模型（对应 emergency_contacts 表）
// 归属于用户账号，本服务只读（账号管理由用户服务负责）
type EmergencyContact struct {
	// 主键
	ContactID string `json:"id" db:"contact_id"` // UUID, PRIMARY KEY

	// 归属
	UserID string `json:"userId" db:"user_id"` // UUID, NOT NULL

	// 联系方式
	Name  string `json:"name" db:"name"`  // VARCHAR(100), NOT NULL
	Phone string `json:"phone" db:"phone"` // VARCHAR(25), NOT NULL，自由格式，使用前归一化

	// 关系
	Relationship string `json:"relationship,omitempty" db:"relationship"` // VARCHAR(50), nullable（Child/Spouse/Friend/Caregiver）
}
