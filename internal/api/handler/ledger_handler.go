package handler

import (
	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/service"
	"purple-port/backend/pkg/response"
)

// LedgerHandler 会计模块 HTTP 处理器
type LedgerHandler struct {
	ledgerSvc service.LedgerService
	export    *ExportHandler
}

// NewLedgerHandler 创建 LedgerHandler
func NewLedgerHandler(ledgerSvc service.LedgerService, export *ExportHandler) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, export: export}
}

// ListHeads GET /api/accounting/heads
func (h *LedgerHandler) ListHeads(c *gin.Context) {
	heads, err := h.ledgerSvc.ListAccountHeads(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, heads)
}

// ────────────────────── 账户 ──────────────────────

// CreateLedger POST /api/accounting/ledgers
func (h *LedgerHandler) CreateLedger(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.CreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	ledger, err := h.ledgerSvc.CreateLedger(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, ledger)
}

// UpdateLedger PUT /api/accounting/ledgers/:id
func (h *LedgerHandler) UpdateLedger(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	ledger, err := h.ledgerSvc.UpdateLedger(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, ledger)
}

// DeleteLedger DELETE /api/accounting/ledgers/:id
func (h *LedgerHandler) DeleteLedger(c *gin.Context) {
	if err := h.ledgerSvc.DeleteLedger(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetLedger GET /api/accounting/ledgers/:id
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	ledger, err := h.ledgerSvc.GetLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, ledger)
}

// ListLedgers GET /api/accounting/ledgers
func (h *LedgerHandler) ListLedgers(c *gin.Context) {
	var q dto.LedgerListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	list, err := h.ledgerSvc.ListLedgers(c.Request.Context(), &q)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// ────────────────────── 凭证 ──────────────────────

// RecordTransaction 按资金流向记账（from 贷，to 借）
// POST /api/accounting/transactions
func (h *LedgerHandler) RecordTransaction(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	h.record(c, &req, callerID)
}

// PostJournal 按借贷口径记账
// POST /api/accounting/journal
func (h *LedgerHandler) PostJournal(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	h.record(c, &dto.RecordTransactionRequest{
		FromLedgerID: req.CreditLedgerID,
		ToLedgerID:   req.DebitLedgerID,
		Amount:       req.Amount,
		Date:         req.Date,
		Description:  req.Description,
		Type:         req.Type,
		Reference:    req.Reference,
	}, callerID)
}

func (h *LedgerHandler) record(c *gin.Context, req *dto.RecordTransactionRequest, callerID string) {
	entry, err := h.ledgerSvc.RecordTransaction(c.Request.Context(), req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, entry)
}

// UpdateTransaction PUT /api/accounting/transactions/:id
func (h *LedgerHandler) UpdateTransaction(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	entry, err := h.ledgerSvc.UpdateTransaction(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, entry)
}

// DeleteTransaction DELETE /api/accounting/transactions/:id
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	if err := h.ledgerSvc.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListTransactions GET /api/accounting/transactions
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	var q dto.TransactionListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}

	list, err := h.ledgerSvc.ListTransactions(c.Request.Context(), &q)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// ────────────────────── 报表 ──────────────────────

// Statement 账户对账单，format=xlsx 时下载 Excel
// GET /api/accounting/ledgers/:id/statement?start=&end=&format=
func (h *LedgerHandler) Statement(c *gin.Context) {
	var q dto.StatementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	if q.Format == "xlsx" {
		h.export.ExportStatement(c, c.Param("id"), &q)
		return
	}

	stmt, err := h.ledgerSvc.GetAccountStatement(c.Request.Context(), c.Param("id"), q.Start, q.End)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, stmt)
}

// Overview GET /api/accounting/overview
func (h *LedgerHandler) Overview(c *gin.Context) {
	overview, err := h.ledgerSvc.GetFinancialOverview(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, overview)
}
