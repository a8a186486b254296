package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountHead 会计科目表 — 对应 account_heads
type AccountHead struct {
	HeadID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"head_id"`
	Code   string `gorm:"type:varchar(10);not null;uniqueIndex"          json:"code"`
	Name   string `gorm:"type:varchar(100);not null"                     json:"name"`
	Type   string `gorm:"type:varchar(20);not null"                      json:"type"` // ASSET | LIABILITY | INCOME | EXPENSE | EQUITY
	BaseModel
}

// TableName 指定表名
func (AccountHead) TableName() string { return "account_heads" }

// 账户主体类型
const (
	EntityUser     = "USER"
	EntityClient   = "CLIENT"
	EntityBank     = "BANK"
	EntityCash     = "CASH"
	EntityInternal = "INTERNAL"
)

// Ledger 账户表 — 对应 ledgers
// Balance 采用借方为正的存储约定，恒等于全部分录行 Σ借 − Σ贷
type Ledger struct {
	LedgerID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ledger_id"`
	Name        string          `gorm:"type:varchar(120);not null"                     json:"name"`
	HeadID      string          `gorm:"type:uuid;not null"                             json:"head_id"`
	EntityType  string          `gorm:"type:varchar(20);not null;default:'INTERNAL'"   json:"entity_type"`
	EntityID    *string         `gorm:"type:uuid"                                      json:"entity_id,omitempty"`
	Description string          `gorm:"type:text"                                      json:"description"`
	Status      string          `gorm:"type:varchar(10);not null;default:'ACTIVE'"     json:"status"`
	Balance     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"balance"`
	BaseModel

	// 关联
	Head *AccountHead `gorm:"foreignKey:HeadID;references:HeadID" json:"head,omitempty"`
}

// TableName 指定表名
func (Ledger) TableName() string { return "ledgers" }

// 分录类型
const (
	EntryJournal = "JOURNAL"
	EntryPayment = "PAYMENT"
	EntryReceipt = "RECEIPT"
	EntryContra  = "CONTRA"
	EntryExpense = "EXPENSE"
)

// JournalEntry 记账凭证表 — 对应 journal_entries
type JournalEntry struct {
	EntryID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	Date        time.Time       `gorm:"not null;index"                                 json:"date"`
	Description string          `gorm:"type:text;not null"                             json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"                    json:"amount"`
	Type        string          `gorm:"type:varchar(20);not null;default:'JOURNAL'"    json:"type"`
	Reference   string          `gorm:"type:varchar(60)"                               json:"reference,omitempty"`
	BaseModel

	// 关联
	Lines []JournalLine `gorm:"foreignKey:EntryID;references:EntryID" json:"lines,omitempty"`
}

// TableName 指定表名
func (JournalEntry) TableName() string { return "journal_entries" }

// JournalLine 凭证分录行表 — 对应 journal_lines
type JournalLine struct {
	LineID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"line_id"`
	EntryID  string          `gorm:"type:uuid;not null;index"                       json:"entry_id"`
	LedgerID string          `gorm:"type:uuid;not null;index"                       json:"ledger_id"`
	Debit    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"debit"`
	Credit   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"credit"`

	// 关联
	Entry  *JournalEntry `gorm:"foreignKey:EntryID;references:EntryID"   json:"entry,omitempty"`
	Ledger *Ledger       `gorm:"foreignKey:LedgerID;references:LedgerID" json:"ledger,omitempty"`
}

// TableName 指定表名
func (JournalLine) TableName() string { return "journal_lines" }
