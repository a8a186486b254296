package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// PayrollHandler 薪资模块 HTTP 处理器
type PayrollHandler struct {
	payrollSvc service.PayrollService
}

// NewPayrollHandler 创建 PayrollHandler
func NewPayrollHandler(payrollSvc service.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollSvc: payrollSvc}
}

// LOP 缺勤扣薪天数
// GET /api/payroll/lop?user_id=&month=&year=
func (h *PayrollHandler) LOP(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	days, err := h.payrollSvc.ComputeLOP(c.Request.Context(), q.UserID, q.Month, q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.LOPResponse{UserID: q.UserID, Month: q.Month, Year: q.Year, LOPDays: days})
}

// Draft 工资草稿
// GET /api/payroll/draft?user_id=&month=&year=
func (h *PayrollHandler) Draft(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	draft, err := h.payrollSvc.GetSalaryDraft(c.Request.Context(), q.UserID, q.Month, q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, draft)
}

// SaveSlip 保存工资单，已发放批次返回 409
// POST /api/payroll/slips
func (h *PayrollHandler) SaveSlip(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.SaveSlipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	slip, err := h.payrollSvc.SavePayrollSlip(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, slip)
}

// RejectSlip DELETE /api/payroll/slips/:id
func (h *PayrollHandler) RejectSlip(c *gin.Context) {
	if err := h.payrollSvc.RejectSlip(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListRuns GET /api/payroll/runs?year=
// 带 month 时返回该月批次详情
func (h *PayrollHandler) ListRuns(c *gin.Context) {
	if c.Query("month") != "" {
		h.runDetails(c)
		return
	}
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	runs, err := h.payrollSvc.ListRuns(c.Request.Context(), q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, runs)
}

func (h *PayrollHandler) runDetails(c *gin.Context) {
	var q dto.RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	run, err := h.payrollSvc.GetPayrollRunDetails(c.Request.Context(), q.Month, q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, run)
}

// ConfirmRun 确认发放：生成工资凭证并锁定批次
// POST /api/payroll/runs/confirm
func (h *PayrollHandler) ConfirmRun(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.ConfirmRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	run, err := h.payrollSvc.ConfirmPayrollRun(c.Request.Context(), req.Month, req.Year, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, run)
}
