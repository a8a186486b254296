package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// LeaveHandler 请假与假日 HTTP 处理器
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// Apply POST /api/attendance/leaves
func (h *LeaveHandler) Apply(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	leave, err := h.leaveSvc.Apply(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, leave)
}

// List GET /api/attendance/leaves?user_id=&status=
func (h *LeaveHandler) List(c *gin.Context) {
	var q dto.LeaveListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	userID, ok := listScope(c, q.UserID)
	if !ok {
		return
	}
	q.UserID = userID

	list, err := h.leaveSvc.List(c.Request.Context(), &q)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// Decide 审批请假，批准后按日写入 LEAVE 考勤
// PUT /api/attendance/leaves/:id/decision
func (h *LeaveHandler) Decide(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	leave, err := h.leaveSvc.Decide(c.Request.Context(), c.Param("id"), approverID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, leave)
}

// ────────────────────── 假日 ──────────────────────

// ListHolidays GET /api/attendance/holidays?year=
func (h *LeaveHandler) ListHolidays(c *gin.Context) {
	var q dto.YearQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	list, err := h.leaveSvc.ListHolidays(c.Request.Context(), q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// CreateHoliday POST /api/attendance/holidays
func (h *LeaveHandler) CreateHoliday(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	holiday, err := h.leaveSvc.CreateHoliday(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, holiday)
}

// DeleteHoliday DELETE /api/attendance/holidays/:id
func (h *LeaveHandler) DeleteHoliday(c *gin.Context) {
	if err := h.leaveSvc.DeleteHoliday(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}
