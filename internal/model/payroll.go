package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 工资批次/工资单状态
const (
	PayrollDraft = "DRAFT"
	PayrollPaid  = "PAID"
	SlipPending  = "PENDING"
	SlipPaid     = "PAID"
)

// PayrollRun 工资批次表 — 对应 payroll_runs，(month, year) 唯一；PAID 后不可修改
type PayrollRun struct {
	RunID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"run_id"`
	Month       int        `gorm:"not null;uniqueIndex:uq_payroll_period"         json:"month"`
	Year        int        `gorm:"not null;uniqueIndex:uq_payroll_period"         json:"year"`
	Status      string     `gorm:"type:varchar(10);not null;default:'DRAFT'"      json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	EntryID     *string    `gorm:"type:uuid"                                      json:"entry_id,omitempty"` // 确认时生成的凭证
	BaseModel

	// 关联
	Slips []PayrollSlip `gorm:"foreignKey:RunID;references:RunID" json:"slips,omitempty"`
}

// TableName 指定表名
func (PayrollRun) TableName() string { return "payroll_runs" }

// Locked 已发放批次不可修改
func (r *PayrollRun) Locked() bool { return r.Status == PayrollPaid }

// PayrollSlip 工资单表 — 对应 payroll_slips，(run_id, user_id) 唯一
type PayrollSlip struct {
	SlipID                 string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"slip_id"`
	RunID                  string          `gorm:"type:uuid;not null;uniqueIndex:uq_slip_run_user" json:"run_id"`
	UserID                 string          `gorm:"type:uuid;not null;uniqueIndex:uq_slip_run_user" json:"user_id"`
	BasicSalary            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"basic_salary"`
	HRA                    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"hra"`
	ConveyanceAllowance    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"accommodation_allowance"`
	Allowances             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"allowances"`
	Incentives             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"incentives"`
	LOPDays                decimal.Decimal `gorm:"column:lop_days;type:numeric(5,1);not null;default:0" json:"lop_days"`
	LOPDeduction           decimal.Decimal `gorm:"column:lop_deduction;type:numeric(14,2);not null;default:0" json:"lop_deduction"`
	AdvanceSalary          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"advance_salary"`
	OtherDeductions        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"other_deductions"`
	TotalWorkingDays       int             `gorm:"not null;default:0"                             json:"total_working_days"`
	NetPay                 decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"net_pay"`
	Status                 string          `gorm:"type:varchar(10);not null;default:'PENDING'"    json:"status"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (PayrollSlip) TableName() string { return "payroll_slips" }
