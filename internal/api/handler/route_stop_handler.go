package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/service"
	pkgerrors "gleamops/backend/pkg/errors"
	"gleamops/backend/pkg/response"
)

// RouteStopHandler 路线执行模块 HTTP 处理器
type RouteStopHandler struct {
	routeSvc service.RouteStopService
}

// NewRouteStopHandler 创建 RouteStopHandler
func NewRouteStopHandler(routeSvc service.RouteStopService) *RouteStopHandler {
	return &RouteStopHandler{routeSvc: routeSvc}
}

// GetRoute 获取路线详情（含站点）
// GET /api/v1/routes/:id
func (h *RouteStopHandler) GetRoute(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "路线ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	route, err := h.routeSvc.GetRoute(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, route)
}

// Arrive 到达站点
// POST /api/v1/route-stops/:id/arrive
func (h *RouteStopHandler) Arrive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "站点ID不能为空")
		return
	}

	var req dto.ArriveStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stop, err := h.routeSvc.ArriveStop(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, stop)
}

// Start 开始作业
// POST /api/v1/route-stops/:id/start
func (h *RouteStopHandler) Start(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "站点ID不能为空")
		return
	}

	var req dto.StartStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stop, err := h.routeSvc.StartStop(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, stop)
}

// Complete 完成作业
// POST /api/v1/route-stops/:id/complete
func (h *RouteStopHandler) Complete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "站点ID不能为空")
		return
	}

	var req dto.CompleteStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stop, err := h.routeSvc.CompleteStop(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, stop)
}

// Skip 跳过站点
// POST /api/v1/route-stops/:id/skip
func (h *RouteStopHandler) Skip(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "站点ID不能为空")
		return
	}

	var req dto.SkipStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	stop, err := h.routeSvc.SkipStop(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, stop)
}

// CaptureTravel 手工补录行程段
// POST /api/v1/travel-segments
func (h *RouteStopHandler) CaptureTravel(c *gin.Context) {
	var req dto.CaptureTravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	segment, err := h.routeSvc.CaptureTravelSegment(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.Created(c, segment)
}

// ApproveTravel 审批行程段
// POST /api/v1/travel-segments/:id/approve
func (h *RouteStopHandler) ApproveTravel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 13001, "行程段ID不能为空")
		return
	}

	var req dto.ApproveTravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	segment, err := h.routeSvc.ApproveTravelSegment(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, segment)
}

// TonightBoard 今夜看板
// GET /api/v1/routes/tonight-board?date=2026-08-31
func (h *RouteStopHandler) TonightBoard(c *gin.Context) {
	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffID(c)
	if !ok {
		return
	}

	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(c, 13001, "date 格式错误，应为 YYYY-MM-DD")
			return
		}
		date = parsed
	}

	board, err := h.routeSvc.TonightBoard(c.Request.Context(), tenantID, staffID, date)
	if err != nil {
		h.handleRouteError(c, err)
		return
	}

	response.OK(c, board)
}

// handleRouteError 统一处理路线执行模块业务错误
func (h *RouteStopHandler) handleRouteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRouteNotFound):
		response.NotFound(c, 13101, "路线不存在")
	case errors.Is(err, service.ErrStopNotFound):
		response.NotFound(c, 13102, "路线站点不存在")
	case errors.Is(err, service.ErrSegmentNotFound):
		response.NotFound(c, 13103, "行程段不存在")
	case errors.Is(err, service.ErrStopNotPending):
		response.BadRequest(c, 13104, "站点不在待到达状态")
	case errors.Is(err, service.ErrStopNotArrived):
		response.BadRequest(c, 13105, "站点未到达，不可开始作业")
	case errors.Is(err, service.ErrStopNotInProgress):
		response.BadRequest(c, 13106, "站点未在作业中，不可完成")
	case errors.Is(err, service.ErrStopNotSkippable):
		response.BadRequest(c, 13107, "站点当前状态不可跳过")
	case errors.Is(err, service.ErrSegmentNotCaptured):
		response.BadRequest(c, 13108, "行程段非待审批状态")
	case errors.Is(err, service.ErrSegmentExists):
		response.Conflict(c, 13109, "该站点对已存在行程段")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被他人修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrBlockedByLock):
		response.Conflict(c, 10007, "排班周期已锁定，禁止修改")
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.BadRequest(c, 10008, "状态流转不合法")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/route_stop_handler.go
