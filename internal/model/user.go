package model

// User 平台用户表 — 对应 users
// 租户/角色管理属于外部协作方，这里仅保留认证所需的最小字段
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	TenantID     string  `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(100);not null"                     json:"-"`
	FullName     string  `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Role         string  `gorm:"type:varchar(20);not null;default:'cleaner'"    json:"role"` // admin | manager | supervisor | cleaner
	StaffID      *string `gorm:"type:uuid"                                      json:"staff_id,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel

	// 关联
	Staff *Staff `gorm:"foreignKey:StaffID;references:StaffID" json:"staff,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
