package dto

import "github.com/shopspring/decimal"

// ── 会计模块 DTO ──

// AccountHeadResponse 会计科目
type AccountHeadResponse struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Nature string `json:"nature"` // DEBIT | CREDIT
}

// CreateLedgerRequest 新建账户，opening_balance > 0 时同时入账期初余额
type CreateLedgerRequest struct {
	Name           string           `json:"name"            binding:"required,max=120"`
	HeadID         string           `json:"head_id"         binding:"required,uuid"`
	EntityType     string           `json:"entity_type"     binding:"omitempty,oneof=USER CLIENT BANK CASH INTERNAL"`
	EntityID       *string          `json:"entity_id"       binding:"omitempty,uuid"`
	Description    string           `json:"description"     binding:"omitempty,max=500"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
	Date           *string          `json:"date"`
}

// UpdateLedgerRequest 修改账户；target_balance 非空时以调整分录补齐差额
type UpdateLedgerRequest struct {
	Name          *string          `json:"name"           binding:"omitempty,max=120"`
	Description   *string          `json:"description"    binding:"omitempty,max=500"`
	Status        *string          `json:"status"         binding:"omitempty,oneof=ACTIVE INACTIVE"`
	TargetBalance *decimal.Decimal `json:"target_balance"`
}

// LedgerListQuery 账户列表过滤
type LedgerListQuery struct {
	HeadType   string `form:"head_type"   binding:"omitempty,oneof=ASSET LIABILITY INCOME EXPENSE EQUITY"`
	EntityType string `form:"entity_type" binding:"omitempty,oneof=USER CLIENT BANK CASH INTERNAL"`
	Status     string `form:"status"      binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// LedgerResponse 账户；balance 为借方为正的存储值，display_balance 按科目性质呈现
type LedgerResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	HeadID         string          `json:"head_id"`
	HeadCode       string          `json:"head_code,omitempty"`
	HeadType       string          `json:"head_type,omitempty"`
	Nature         string          `json:"nature,omitempty"`
	EntityType     string          `json:"entity_type"`
	EntityID       *string         `json:"entity_id,omitempty"`
	Description    string          `json:"description"`
	Status         string          `json:"status"`
	Balance        decimal.Decimal `json:"balance"`
	DisplayBalance decimal.Decimal `json:"display_balance"`
}

// PostEntryRequest 复式记账：借 debit_ledger_id，贷 credit_ledger_id
type PostEntryRequest struct {
	Date           string          `json:"date"             binding:"required"`
	Description    string          `json:"description"      binding:"required,max=500"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"             binding:"omitempty,oneof=JOURNAL PAYMENT RECEIPT CONTRA EXPENSE"`
	DebitLedgerID  string          `json:"debit_ledger_id"  binding:"required,uuid"`
	CreditLedgerID string          `json:"credit_ledger_id" binding:"required,uuid"`
	Reference      string          `json:"reference"        binding:"omitempty,max=60"`
}

// RecordTransactionRequest 资金流向口径：从 from（贷）到 to（借）
type RecordTransactionRequest struct {
	FromLedgerID string          `json:"from_ledger_id" binding:"required,uuid"`
	ToLedgerID   string          `json:"to_ledger_id"   binding:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"           binding:"required"`
	Description  string          `json:"description"    binding:"required,max=500"`
	Type         string          `json:"type"           binding:"omitempty,oneof=JOURNAL PAYMENT RECEIPT CONTRA EXPENSE"`
	Reference    string          `json:"reference"      binding:"omitempty,max=60"`
}

// UpdateTransactionRequest 修改凭证；amount 变化时各分录行等比缩放
type UpdateTransactionRequest struct {
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Date        *string          `json:"date"`
	Reference   *string          `json:"reference"   binding:"omitempty,max=60"`
	Amount      *decimal.Decimal `json:"amount"`
}

// TransactionListQuery 凭证列表过滤
type TransactionListQuery struct {
	LedgerID string `form:"ledger_id" binding:"omitempty,uuid"`
	Start    string `form:"start"`
	End      string `form:"end"`
	Limit    int    `form:"limit"     binding:"omitempty,min=1,max=500"`
}

// TransactionLineResponse 分录行
type TransactionLineResponse struct {
	ID         string          `json:"id"`
	LedgerID   string          `json:"ledger_id"`
	LedgerName string          `json:"ledger_name,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
}

// TransactionResponse 凭证
type TransactionResponse struct {
	ID          string                    `json:"id"`
	Date        string                    `json:"date"`
	Description string                    `json:"description"`
	Amount      decimal.Decimal           `json:"amount"`
	Type        string                    `json:"type"`
	Reference   string                    `json:"reference,omitempty"`
	Lines       []TransactionLineResponse `json:"lines"`
}

// StatementQuery 对账单查询，format=xlsx 时导出文件
type StatementQuery struct {
	Start  string `form:"start"  binding:"required"`
	End    string `form:"end"    binding:"required"`
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// StatementLineResponse 对账单行
type StatementLineResponse struct {
	EntryID     string          `json:"entry_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// StatementResponse 账户对账单，余额按科目性质呈现
type StatementResponse struct {
	LedgerID       string                  `json:"ledger_id"`
	LedgerName     string                  `json:"ledger_name"`
	Nature         string                  `json:"nature"`
	Start          string                  `json:"start"`
	End            string                  `json:"end"`
	OpeningBalance decimal.Decimal         `json:"opening_balance"`
	ClosingBalance decimal.Decimal         `json:"closing_balance"`
	TotalDebit     decimal.Decimal         `json:"total_debit"`
	TotalCredit    decimal.Decimal         `json:"total_credit"`
	Lines          []StatementLineResponse `json:"lines"`
}

// ExpenseItem 费用明细
type ExpenseItem struct {
	LedgerID   string          `json:"ledger_id"`
	LedgerName string          `json:"ledger_name"`
	Amount     decimal.Decimal `json:"amount"`
}

// FinancialOverviewResponse 财务概览
type FinancialOverviewResponse struct {
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	CashBankBalance  decimal.Decimal `json:"cash_bank_balance"`
	ExpenseBreakdown []ExpenseItem   `json:"expense_breakdown"`
}
