package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/service"
	pkgerrors "purple-port/backend/pkg/errors"
	"purple-port/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Staff        *StaffHandler
	SystemConfig *SystemConfigHandler
	Shift        *ShiftHandler
	Attendance   *AttendanceHandler
	Biometric    *BiometricHandler
	Leave        *LeaveHandler
	Ledger       *LedgerHandler
	Payroll      *PayrollHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, clock attendance.Clock) *Handler {
	export := NewExportHandler(svc.Export)
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Staff:        NewStaffHandler(svc.Staff),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
		Shift:        NewShiftHandler(svc.Shift),
		Attendance:   NewAttendanceHandler(svc.Attendance, clock),
		Biometric:    NewBiometricHandler(svc.Biometric),
		Leave:        NewLeaveHandler(svc.Leave),
		Ledger:       NewLedgerHandler(svc.Ledger, export),
		Payroll:      NewPayrollHandler(svc.Payroll),
		Export:       export,
	}
}

// 业务错误码
const (
	codeValidation   = 10001
	codeUnauthorized = 10002
	codeForbidden    = 10003
	codeNotFound     = 10404
	codeConflict     = 10409
	codeLocked       = 10423
)

// handleServiceError 按业务错误类别映射 HTTP 状态码，未归类错误一律 500
func handleServiceError(c *gin.Context, err error) {
	msg := pkgerrors.Message(err)
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, codeValidation, msg)
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, msg)
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, codeConflict, msg)
	case errors.Is(err, pkgerrors.ErrLocked):
		response.Locked(c, codeLocked, msg)
	default:
		response.InternalError(c)
	}
}

func badRequest(c *gin.Context) {
	response.BadRequest(c, codeValidation, "参数校验失败")
}
