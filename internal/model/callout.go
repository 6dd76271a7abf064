package model

import "time"

// ── 缺勤事件状态 ──

const (
	CalloutStatusReported  = "reported"
	CalloutStatusOffered   = "offered"
	CalloutStatusCovered   = "covered"
	CalloutStatusEscalated = "escalated"
	CalloutStatusResolved  = "resolved"
	CalloutStatusCancelled = "cancelled"
)

// ── 顶班邀约状态 ──

const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusDeclined  = "declined"
	OfferStatusExpired   = "expired"
	OfferStatusWithdrawn = "withdrawn"
)

// CalloutEvent 缺勤事件表 — 对应 callout_events
// 记录某员工无法到岗；状态机：reported → offered → {covered | escalated} → resolved，
// cancelled 可从任意非终态进入
type CalloutEvent struct {
	CalloutEventID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"callout_event_id"`
	TenantID            string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	AffectedStaffID     string     `gorm:"type:uuid;not null;index"                       json:"affected_staff_id"`
	Reason              string     `gorm:"type:varchar(500);not null"                     json:"reason"`
	RouteID             *string    `gorm:"type:uuid" json:"route_id,omitempty"`
	RouteStopID         *string    `gorm:"type:uuid" json:"route_stop_id,omitempty"`
	WorkTicketID        *string    `gorm:"type:uuid" json:"work_ticket_id,omitempty"`
	SiteID              *string    `gorm:"type:uuid" json:"site_id,omitempty"`
	Status              string     `gorm:"type:varchar(20);not null;default:'reported'"   json:"status"` // reported | offered | covered | escalated | resolved | cancelled
	EscalationLevel     int        `gorm:"not null;default:0"                             json:"escalation_level"`
	ReportedAt          time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"reported_at"`
	AssignmentAppliedAt *time.Time `json:"assignment_applied_at,omitempty"`
	ResolutionNote      string     `gorm:"type:varchar(500)" json:"resolution_note,omitempty"`
	VersionedModel

	// 关联
	AffectedStaff *Staff `gorm:"foreignKey:AffectedStaffID;references:StaffID" json:"affected_staff,omitempty"`
}

// TableName 指定表名
func (CalloutEvent) TableName() string { return "callout_events" }

// IsTerminal 事件是否已进入终态
func (e *CalloutEvent) IsTerminal() bool {
	return e.Status == CalloutStatusResolved || e.Status == CalloutStatusCancelled
}

// CoverageOffer 顶班邀约表 — 对应 coverage_offers
// 针对一个缺勤事件向单一候选人发出的限时邀约；
// 同一事件同一时刻最多一条 pending，最多一条 accepted
type CoverageOffer struct {
	OfferID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"offer_id"`
	TenantID         string     `gorm:"type:uuid;not null;index"                       json:"tenant_id"`
	CalloutEventID   string     `gorm:"type:uuid;not null;index"                       json:"callout_event_id"`
	CandidateStaffID string     `gorm:"type:uuid;not null"                             json:"candidate_staff_id"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | declined | expired | withdrawn
	OfferedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"offered_at"`
	ExpiresAt        time.Time  `gorm:"not null"                                       json:"expires_at"`
	RespondedAt      *time.Time `json:"responded_at,omitempty"`
	ResponseNote     string     `gorm:"type:varchar(500)" json:"response_note,omitempty"`
	VersionedModel

	// 关联
	CalloutEvent *CalloutEvent `gorm:"foreignKey:CalloutEventID;references:CalloutEventID" json:"callout_event,omitempty"`
	Candidate    *Staff        `gorm:"foreignKey:CandidateStaffID;references:StaffID"      json:"candidate,omitempty"`
}

// TableName 指定表名
func (CoverageOffer) TableName() string { return "coverage_offers" }

// [自证通过] internal/model/callout.go
