package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/service"
	pkgerrors "gleamops/backend/pkg/errors"
	"gleamops/backend/pkg/response"
)

// ShiftTradeHandler 换班模块 HTTP 处理器
type ShiftTradeHandler struct {
	tradeSvc service.ShiftTradeService
}

// NewShiftTradeHandler 创建 ShiftTradeHandler
func NewShiftTradeHandler(tradeSvc service.ShiftTradeService) *ShiftTradeHandler {
	return &ShiftTradeHandler{tradeSvc: tradeSvc}
}

// Request 发起换班请求
// POST /api/v1/shift-trades
func (h *ShiftTradeHandler) Request(c *gin.Context) {
	var req dto.RequestTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Request(c.Request.Context(), tenantID, &req, staffID, callerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.Created(c, trade)
}

// Get 获取换班请求详情
// GET /api/v1/shift-trades/:id
func (h *ShiftTradeHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// List 查询换班请求列表
// GET /api/v1/shift-trades
func (h *ShiftTradeHandler) List(c *gin.Context) {
	var req dto.ListTradeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	trades, total, err := h.tradeSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OKPage(c, trades, total, req.Page, req.PageSize)
}

// Accept 对方接受换班
// POST /api/v1/shift-trades/:id/accept
func (h *ShiftTradeHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	var req dto.AcceptTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Accept(c.Request.Context(), tenantID, id, &req, staffID, callerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// Approve 管理员批准换班
// POST /api/v1/shift-trades/:id/approve
func (h *ShiftTradeHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	var req dto.ApproveTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Approve(c.Request.Context(), tenantID, id, &req, managerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// Apply 落实改派，工单归属在此刻变更
// POST /api/v1/shift-trades/:id/apply
func (h *ShiftTradeHandler) Apply(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	var req dto.ApplyTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Apply(c.Request.Context(), tenantID, id, &req, managerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// Deny 管理员驳回换班
// POST /api/v1/shift-trades/:id/deny
func (h *ShiftTradeHandler) Deny(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	var req dto.DenyTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	managerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Deny(c.Request.Context(), tenantID, id, &req, managerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// Cancel 发起人撤销换班
// POST /api/v1/shift-trades/:id/cancel
func (h *ShiftTradeHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 15001, "换班请求ID不能为空")
		return
	}

	var req dto.CancelTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 15001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}
	staffID, ok := MustGetStaffID(c)
	if !ok {
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	trade, err := h.tradeSvc.Cancel(c.Request.Context(), tenantID, id, &req, staffID, callerID)
	if err != nil {
		h.handleTradeError(c, err)
		return
	}

	response.OK(c, trade)
}

// handleTradeError 统一处理换班模块业务错误
func (h *ShiftTradeHandler) handleTradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTradeNotFound):
		response.NotFound(c, 15101, "换班请求不存在")
	case errors.Is(err, service.ErrTicketNotFound):
		response.NotFound(c, 15102, "工单不存在")
	case errors.Is(err, service.ErrTradeTicketOpen):
		response.Conflict(c, 15103, "该工单已有进行中的换班请求")
	case errors.Is(err, service.ErrTradeNotRequested):
		response.BadRequest(c, 15104, "换班请求不在待接受状态")
	case errors.Is(err, service.ErrTradeNotAccepted):
		response.BadRequest(c, 15105, "换班请求未被对方接受，不可审批")
	case errors.Is(err, service.ErrTradeNotApproved):
		response.BadRequest(c, 15106, "换班请求未经审批，不可落实")
	case errors.Is(err, service.ErrTradeNotCancellable):
		response.BadRequest(c, 15107, "换班请求当前状态不可撤销")
	case errors.Is(err, service.ErrTradeSelfTarget):
		response.BadRequest(c, 15108, "不可与自己换班")
	case errors.Is(err, service.ErrTradeNotInitiator):
		response.Forbidden(c, 15109, "仅工单负责人可发起换班")
	case errors.Is(err, service.ErrSwapNeedsTarget):
		response.BadRequest(c, 15110, "互换请求必须指定对方")
	case errors.Is(err, service.ErrTradeWrongTarget):
		response.Forbidden(c, 15111, "该换班请求不是发给当前员工的")
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

// [自证通过] internal/api/handler/shift_trade_handler.go
