package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// BiometricHandler 考勤机同步 HTTP 处理器
type BiometricHandler struct {
	biometricSvc service.BiometricService
}

// NewBiometricHandler 创建 BiometricHandler
func NewBiometricHandler(biometricSvc service.BiometricService) *BiometricHandler {
	return &BiometricHandler{biometricSvc: biometricSvc}
}

// Sync 管理员上传考勤机日志，逐条对账后返回成功与失败明细
// POST /api/attendance/biometric/sync
func (h *BiometricHandler) Sync(c *gin.Context) {
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	response.OK(c, h.biometricSvc.ProcessLogs(c.Request.Context(), req.Logs))
}

// BridgeUpload 桥接程序推送，由 X-API-Key 鉴权
// POST /api/attendance/biometric/bridge/upload
func (h *BiometricHandler) BridgeUpload(c *gin.Context) {
	var req dto.BridgeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	report, err := h.biometricSvc.BridgeUpload(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, report)
}

// Status 桥接在线状态
// GET /api/attendance/biometric/status?device_id=
func (h *BiometricHandler) Status(c *gin.Context) {
	deviceID := c.Query("device_id")
	if deviceID == "" {
		response.BadRequest(c, codeValidation, "device_id 不能为空")
		return
	}

	response.OK(c, h.biometricSvc.BridgeStatus(c.Request.Context(), deviceID))
}
