package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gleamops/backend/internal/dto"
	"gleamops/backend/internal/service"
	pkgerrors "gleamops/backend/pkg/errors"
	"gleamops/backend/pkg/response"
)

// PayrollHandler 工资导出模块 HTTP 处理器
type PayrollHandler struct {
	payrollSvc service.PayrollExportService
}

// NewPayrollHandler 创建 PayrollHandler
func NewPayrollHandler(payrollSvc service.PayrollExportService) *PayrollHandler {
	return &PayrollHandler{payrollSvc: payrollSvc}
}

// Preview 生成导出预览（纯读，不落库）
// POST /api/v1/payroll/preview
func (h *PayrollHandler) Preview(c *gin.Context) {
	var req dto.PreviewExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	preview, err := h.payrollSvc.Preview(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.OK(c, preview)
}

// Generate 生成导出批次
// POST /api/v1/payroll/runs
func (h *PayrollHandler) Generate(c *gin.Context) {
	var req dto.GenerateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
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

	run, err := h.payrollSvc.Generate(c.Request.Context(), tenantID, &req, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.Created(c, run)
}

// Finalize 终结导出批次，写出文件
// POST /api/v1/payroll/runs/:id/finalize
func (h *PayrollHandler) Finalize(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "批次ID不能为空")
		return
	}

	var req dto.FinalizeRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
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

	run, err := h.payrollSvc.Finalize(c.Request.Context(), tenantID, id, &req, callerID)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.OK(c, run)
}

// GetRun 获取导出批次详情
// GET /api/v1/payroll/runs/:id
func (h *PayrollHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "批次ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	run, err := h.payrollSvc.GetRun(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.OK(c, run)
}

// ListRuns 查询导出批次列表
// GET /api/v1/payroll/runs
func (h *PayrollHandler) ListRuns(c *gin.Context) {
	var req dto.ListRunRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 16001, "参数校验失败")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	runs, total, err := h.payrollSvc.ListRuns(c.Request.Context(), tenantID, &req)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.OKPage(c, runs, total, req.Page, req.PageSize)
}

// ListItems 查询批次明细行
// GET /api/v1/payroll/runs/:id/items
func (h *PayrollHandler) ListItems(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 16001, "批次ID不能为空")
		return
	}

	tenantID, ok := MustGetTenantID(c)
	if !ok {
		return
	}

	items, err := h.payrollSvc.ListItems(c.Request.Context(), tenantID, id)
	if err != nil {
		h.handlePayrollError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// handlePayrollError 统一处理工资导出模块业务错误
func (h *PayrollHandler) handlePayrollError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMappingNotFound):
		response.NotFound(c, 16101, "导出映射模板不存在")
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 16102, "导出批次不存在")
	case errors.Is(err, service.ErrMappingNoFields):
		response.BadRequest(c, 16103, "导出映射模板未配置任何字段")
	case errors.Is(err, service.ErrInvalidExportRange):
		response.BadRequest(c, 16104, "导出区间结束日期不能早于开始日期")
	case errors.Is(err, service.ErrRunNotGenerated):
		response.BadRequest(c, 16105, "导出批次未生成，不可终结")
	case errors.Is(err, service.ErrExportAlreadyFinalized):
		response.Conflict(c, 16106, "导出批次已终结，且校验和不一致")
	case errors.Is(err, service.ErrChecksumMismatch):
		response.Conflict(c, 16107, "校验和与批次数据不一致，请重新预览确认")
	case errors.Is(err, service.ErrRunHasInvalidRows):
		response.BadRequest(c, 16108, "批次存在无效行，需显式允许后方可终结")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, "数据已被他人修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/payroll_handler.go
