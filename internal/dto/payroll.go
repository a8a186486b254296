package dto

import "github.com/shopspring/decimal"

// ── 薪资模块 DTO ──

// PeriodQuery 按员工与月份查询
type PeriodQuery struct {
	UserID string `form:"user_id" binding:"required,uuid"`
	Month  int    `form:"month"   binding:"required,min=1,max=12"`
	Year   int    `form:"year"    binding:"required,min=2000,max=2100"`
}

// RunQuery 按月份查询工资批次
type RunQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year"  binding:"required,min=2000,max=2100"`
}

// LOPResponse 缺勤扣薪天数
type LOPResponse struct {
	UserID  string          `json:"user_id"`
	Month   int             `json:"month"`
	Year    int             `json:"year"`
	LOPDays decimal.Decimal `json:"lop_days"`
}

// SalaryDraftResponse 工资草稿：档案薪资、最新 LOP 与已有工资单的合并视图
type SalaryDraftResponse struct {
	UserID                 string          `json:"user_id"`
	FullName               string          `json:"full_name"`
	Month                  int             `json:"month"`
	Year                   int             `json:"year"`
	BasicSalary            decimal.Decimal `json:"basic_salary"`
	HRA                    decimal.Decimal `json:"hra"`
	ConveyanceAllowance    decimal.Decimal `json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `json:"accommodation_allowance"`
	Allowances             decimal.Decimal `json:"allowances"`
	Incentives             decimal.Decimal `json:"incentives"`
	AdvanceSalary          decimal.Decimal `json:"advance_salary"`
	OtherDeductions        decimal.Decimal `json:"other_deductions"`
	LOPDays                decimal.Decimal `json:"lop_days"`
	DailyWage              decimal.Decimal `json:"daily_wage"`
	LOPDeduction           decimal.Decimal `json:"lop_deduction"`
	TotalWorkingDays       int             `json:"total_working_days"`
	NetPay                 decimal.Decimal `json:"net_pay"`
	RunStatus              string          `json:"run_status,omitempty"`
	SlipID                 *string         `json:"slip_id,omitempty"`
}

// SaveSlipRequest 保存工资单；lop_deduction 与 net_pay 由服务端计算
type SaveSlipRequest struct {
	UserID                 string           `json:"user_id"  binding:"required,uuid"`
	Month                  int              `json:"month"    binding:"required,min=1,max=12"`
	Year                   int              `json:"year"     binding:"required,min=2000,max=2100"`
	BasicSalary            decimal.Decimal  `json:"basic_salary"`
	HRA                    decimal.Decimal  `json:"hra"`
	ConveyanceAllowance    decimal.Decimal  `json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal  `json:"accommodation_allowance"`
	Allowances             decimal.Decimal  `json:"allowances"`
	Incentives             decimal.Decimal  `json:"incentives"`
	AdvanceSalary          decimal.Decimal  `json:"advance_salary"`
	OtherDeductions        decimal.Decimal  `json:"other_deductions"`
	LOPDays                *decimal.Decimal `json:"lop_days"` // 为空时按考勤重新计算
	TotalWorkingDays       int              `json:"total_working_days" binding:"omitempty,min=0,max=31"`
}

// SlipResponse 工资单
type SlipResponse struct {
	ID                     string          `json:"id"`
	RunID                  string          `json:"run_id"`
	UserID                 string          `json:"user_id"`
	FullName               string          `json:"full_name,omitempty"`
	BasicSalary            decimal.Decimal `json:"basic_salary"`
	HRA                    decimal.Decimal `json:"hra"`
	ConveyanceAllowance    decimal.Decimal `json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `json:"accommodation_allowance"`
	Allowances             decimal.Decimal `json:"allowances"`
	Incentives             decimal.Decimal `json:"incentives"`
	LOPDays                decimal.Decimal `json:"lop_days"`
	LOPDeduction           decimal.Decimal `json:"lop_deduction"`
	AdvanceSalary          decimal.Decimal `json:"advance_salary"`
	OtherDeductions        decimal.Decimal `json:"other_deductions"`
	TotalWorkingDays       int             `json:"total_working_days"`
	NetPay                 decimal.Decimal `json:"net_pay"`
	Status                 string          `json:"status"`
}

// ConfirmRunRequest 确认发放
type ConfirmRunRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year"  binding:"required,min=2000,max=2100"`
}

// PayrollRunResponse 工资批次详情
type PayrollRunResponse struct {
	ID              string          `json:"id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Status          string          `json:"status"`
	ProcessedAt     *string         `json:"processed_at,omitempty"`
	EntryID         *string         `json:"entry_id,omitempty"`
	Slips           []SlipResponse  `json:"slips"`
	TotalPayout     decimal.Decimal `json:"total_payout"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}
