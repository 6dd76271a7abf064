package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/service"
	pkgerrors "gleamops/backend/pkg/errors"
	"gleamops/backend/pkg/response"
)

// CalloutHandler 缺勤与顶班模块 HTTP 处理器
type CalloutHandler struct {
	calloutSvc service.CalloutService
}

// NewCalloutHandler 创建 CalloutHandler
func NewCalloutHandler(calloutSvc service.CalloutService) *CalloutHandler {
	return &CalloutHandler{calloutSvc: calloutSvc}
}

// Report 上报缺勤
// POST /api/v1/callouts
func (h *CalloutHandler) Report(c *gin.Context) {
	var req dto.ReportCalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	event, err := h.calloutSvc.Report(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.Created(c, event)
}

// Get 获取缺勤事件详情
// GET /api/v1/callouts/:id
func (h *CalloutHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "事件ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	event, err := h.calloutSvc.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, event)
}

// List 查询缺勤事件列表
// GET /api/v1/callouts
func (h *CalloutHandler) List(c *gin.Context) {
	var req dto.ListCalloutRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	events, total, err := h.calloutSvc.List(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OKPage(c, events, total, req.Page, req.PageSize)
}

// ListOffers 查询事件的邀约记录
// GET /api/v1/callouts/:id/offers
func (h *CalloutHandler) ListOffers(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "事件ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	offers, err := h.calloutSvc.ListOffers(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, gin.H{"list": offers})
}

// Offer 发出顶班邀约
// POST /api/v1/callouts/:id/offers
func (h *CalloutHandler) Offer(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "事件ID不能为空")
		return
	}

	var req dto.OfferCoverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	offer, err := h.calloutSvc.Offer(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.Created(c, offer)
}

// Accept 候选人接受邀约，级联完成顶班改派
// POST /api/v1/coverage-offers/:id/accept
func (h *CalloutHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "邀约ID不能为空")
		return
	}

	var req dto.RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	event, err := h.calloutSvc.Accept(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, event)
}

// Decline 候选人拒绝邀约
// POST /api/v1/coverage-offers/:id/decline
func (h *CalloutHandler) Decline(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "邀约ID不能为空")
		return
	}

	var req dto.RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	offer, err := h.calloutSvc.Decline(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, offer)
}

// Withdraw 调度员撤回邀约
// POST /api/v1/coverage-offers/:id/withdraw
func (h *CalloutHandler) Withdraw(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "邀约ID不能为空")
		return
	}

	var req dto.RespondOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	offer, err := h.calloutSvc.Withdraw(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, offer)
}

// Resolve 人工关闭缺勤事件
// POST /api/v1/callouts/:id/resolve
func (h *CalloutHandler) Resolve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "事件ID不能为空")
		return
	}

	var req dto.ResolveCalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	event, err := h.calloutSvc.Resolve(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, event)
}

// Cancel 取消缺勤事件（误报）
// POST /api/v1/callouts/:id/cancel
func (h *CalloutHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 14001, "事件ID不能为空")
		return
	}

	var req dto.ResolveCalloutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14001, "参数校验失败")
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

	event, err := h.calloutSvc.Cancel(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handleCalloutError(c, err)
		return
	}

	response.OK(c, event)
}

// handleCalloutError 统一处理缺勤模块业务错误
func (h *CalloutHandler) handleCalloutError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCalloutNotFound):
		response.NotFound(c, 14101, "缺勤事件不存在")
	case errors.Is(err, service.ErrOfferNotFound):
		response.NotFound(c, 14102, "顶班邀约不存在")
	case errors.Is(err, service.ErrStaffNotFound):
		response.NotFound(c, 14103, "员工不存在")
	case errors.Is(err, service.ErrCalloutTerminal):
		response.BadRequest(c, 14104, "缺勤事件已关闭，不可操作")
	case errors.Is(err, service.ErrCalloutCovered):
		response.BadRequest(c, 14105, "缺勤事件已有人顶班")
	case errors.Is(err, service.ErrSelfCoverage):
		response.BadRequest(c, 14106, "不可邀请缺勤者本人顶班")
	case errors.Is(err, service.ErrOfferNotAcceptable):
		response.Conflict(c, 14107, "邀约已失效或已被处理")
	case errors.Is(err, service.ErrOfferNotPending):
		response.BadRequest(c, 14108, "邀约不在待响应状态")
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

// [自证通过] internal/api/handler/callout_handler.go
