package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// StaffHandler 团队（员工）模块 HTTP 处理器
type StaffHandler struct {
	staffSvc service.StaffService
}

// NewStaffHandler 创建 StaffHandler
func NewStaffHandler(staffSvc service.StaffService) *StaffHandler {
	return &StaffHandler{staffSvc: staffSvc}
}

// Onboard 员工入职
// POST /api/team/staff
func (h *StaffHandler) Onboard(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.OnboardStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.staffSvc.Onboard(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, result)
}

// List 员工列表（分页）
// GET /api/team/staff
func (h *StaffHandler) List(c *gin.Context) {
	var req dto.StaffListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	users, total, err := h.staffSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// Get 员工详情
// GET /api/team/staff/:userId
func (h *StaffHandler) Get(c *gin.Context) {
	user, err := h.staffSvc.GetByUserID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateSalary 调整薪资结构
// PUT /api/team/staff/:userId/salary
func (h *StaffHandler) UpdateSalary(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateSalaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	user, err := h.staffSvc.UpdateSalary(c.Request.Context(), c.Param("userId"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, user)
}

// Import Excel 批量导入员工，表单字段 file
// POST /api/team/staff/import
func (h *StaffHandler) Import(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, codeValidation, "请上传 Excel 文件")
		return
	}
	defer file.Close()

	rows, err := h.staffSvc.ParseImportFile(file)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := h.staffSvc.ImportStaff(c.Request.Context(), rows, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, result)
}
