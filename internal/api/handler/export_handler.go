package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// ExportHandler Excel 导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportStatement 导出账户对账单
// GET /api/accounting/ledgers/:id/statement?format=xlsx
func (h *ExportHandler) ExportStatement(c *gin.Context, ledgerID string, q *dto.StatementQuery) {
	buf, filename, err := h.exportSvc.ExportStatement(c.Request.Context(), ledgerID, q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, response.XLSXContentType, buf.Bytes())
}

// ExportPayrollRegister 导出工资发放表
// GET /api/payroll/runs/export?month=&year=
func (h *ExportHandler) ExportPayrollRegister(c *gin.Context) {
	var q dto.RunQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	buf, filename, err := h.exportSvc.ExportPayrollRegister(c.Request.Context(), q.Month, q.Year)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, response.XLSXContentType, buf.Bytes())
}
