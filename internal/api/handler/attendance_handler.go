package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	clock         attendance.Clock
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, clock attendance.Clock) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, clock: clock}
}

// ────────────────────── 打卡 ──────────────────────

// CheckIn POST /api/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rec, err := h.attendanceSvc.CheckIn(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, rec)
}

// CheckOut POST /api/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	rec, err := h.attendanceSvc.CheckOut(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, rec)
}

// ────────────────────── 查询 ──────────────────────

// Records GET /api/attendance/records?user_id=&start=&end=
func (h *AttendanceHandler) Records(c *gin.Context) {
	var q dto.RecordsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	userID, ok := resolveTargetUser(c, q.UserID)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ListRecords(c.Request.Context(), userID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// Calendar GET /api/attendance/calendar?user_id=&month=&year=
func (h *AttendanceHandler) Calendar(c *gin.Context) {
	var q dto.CalendarQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	userID, ok := resolveTargetUser(c, q.UserID)
	if !ok {
		return
	}

	cal, err := h.attendanceSvc.GetMonthlyCalendar(c.Request.Context(), userID, q.Month, q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, cal)
}

// ────────────────────── 管理 ──────────────────────

// AdminUpdate 管理员修改考勤，修改后记录锁定
// POST /api/attendance/admin/update
func (h *AttendanceHandler) AdminUpdate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	rec, err := h.attendanceSvc.AdminUpdate(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, rec)
}

// Recompute POST /api/attendance/recompute
func (h *AttendanceHandler) Recompute(c *gin.Context) {
	var req dto.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	from, err := h.clock.ParseDate(req.From)
	if err != nil {
		handleServiceError(c, service.ErrInvalidDate)
		return
	}
	to, err := h.clock.ParseDate(req.To)
	if err != nil {
		handleServiceError(c, service.ErrInvalidDate)
		return
	}

	n, err := h.attendanceSvc.RecomputeRange(c.Request.Context(), service.RecomputeRange{
		UserID: req.UserID,
		From:   from,
		To:     to,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.RecomputeResponse{Updated: n})
}

// ────────────────────── 补签 ──────────────────────

// RequestRegularisation POST /api/attendance/regularisations
func (h *AttendanceHandler) RequestRegularisation(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateRegularisationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.attendanceSvc.RequestRegularisation(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// ListRegularisations GET /api/attendance/regularisations?user_id=&status=
func (h *AttendanceHandler) ListRegularisations(c *gin.Context) {
	var q dto.RegularisationListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	userID, ok := listScope(c, q.UserID)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.ListRegularisations(c.Request.Context(), userID, q.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// DecideRegularisation PUT /api/attendance/regularisations/:id/decision
func (h *AttendanceHandler) DecideRegularisation(c *gin.Context) {
	approverID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.attendanceSvc.DecideRegularisation(c.Request.Context(), c.Param("id"), approverID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}

// RevertRegularisation 撤销已批准的补签
// POST /api/attendance/regularisations/:id/revert
func (h *AttendanceHandler) RevertRegularisation(c *gin.Context) {
	result, err := h.attendanceSvc.RevertRegularisation(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
