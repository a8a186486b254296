package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// ShiftHandler 班次与班次分配 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// ────────────────────── 班次 ──────────────────────

// Create POST /api/attendance/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	shift, err := h.shiftSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, shift)
}

// Update PUT /api/attendance/shifts/:id
func (h *ShiftHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	shift, err := h.shiftSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, shift)
}

// List GET /api/attendance/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	shifts, err := h.shiftSvc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, shifts)
}

// Delete DELETE /api/attendance/shifts/:id
func (h *ShiftHandler) Delete(c *gin.Context) {
	if err := h.shiftSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── 班次分配 ──────────────────────

// Assign 分配班次，成功后重算受影响日期
// POST /api/attendance/shift-assignments
func (h *ShiftHandler) Assign(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.AssignShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	asg, err := h.shiftSvc.AssignShift(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, asg)
}

// ListAssignments GET /api/attendance/shift-assignments?staff_profile_id=
func (h *ShiftHandler) ListAssignments(c *gin.Context) {
	staffProfileID := c.Query("staff_profile_id")
	if staffProfileID == "" {
		response.BadRequest(c, codeValidation, "staff_profile_id 不能为空")
		return
	}

	list, err := h.shiftSvc.ListAssignments(c.Request.Context(), staffProfileID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// DeleteAssignment DELETE /api/attendance/shift-assignments/:id
func (h *ShiftHandler) DeleteAssignment(c *gin.Context) {
	n, err := h.shiftSvc.DeleteAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, dto.RecomputeResponse{Updated: n})
}

// Resolve 查询某员工某日生效班次
// GET /api/attendance/shifts/resolve?user_id=&date=
func (h *ShiftHandler) Resolve(c *gin.Context) {
	userID, ok := resolveTargetUser(c, c.Query("user_id"))
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, codeValidation, "date 不能为空")
		return
	}

	shift, err := h.shiftSvc.ResolveShift(c.Request.Context(), userID, date)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, shift)
}
