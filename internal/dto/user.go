package dto

import "github.com/shopspring/decimal"

// ── 团队（员工）模块 DTO ──

// StaffListRequest 员工列表查询参数
type StaffListRequest struct {
	PaginationRequest
	Role string `form:"role" binding:"omitempty,oneof=ADMIN MANAGER DEVELOPER_ADMIN STAFF CLIENT"`
}

// OnboardStaffRequest 员工入职请求：一次性创建用户、档案与员工往来账户
type OnboardStaffRequest struct {
	FullName               string          `json:"full_name"    binding:"required,min=2,max=120"`
	Email                  string          `json:"email"        binding:"required,email"`
	Password               string          `json:"password"     binding:"required,min=8,max=64"`
	Role                   string          `json:"role"         binding:"omitempty,oneof=ADMIN MANAGER DEVELOPER_ADMIN STAFF"`
	StaffNumber            string          `json:"staff_number" binding:"required,max=30"`
	Department             string          `json:"department"   binding:"omitempty,max=60"`
	Designation            string          `json:"designation"  binding:"omitempty,max=60"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	HRA                    decimal.Decimal `json:"hra"`
	ConveyanceAllowance    decimal.Decimal `json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `json:"accommodation_allowance"`
	Allowances             decimal.Decimal `json:"allowances"`
}

// UpdateSalaryRequest 调整薪资结构，未传字段保持不变
type UpdateSalaryRequest struct {
	BaseSalary             *decimal.Decimal `json:"base_salary"`
	HRA                    *decimal.Decimal `json:"hra"`
	ConveyanceAllowance    *decimal.Decimal `json:"conveyance_allowance"`
	AccommodationAllowance *decimal.Decimal `json:"accommodation_allowance"`
	Allowances             *decimal.Decimal `json:"allowances"`
}

// OnboardStaffResponse 入职结果
type OnboardStaffResponse struct {
	User     UserResponse `json:"user"`
	LedgerID string       `json:"ledger_id"`
}

// ImportStaffError 批量导入失败行
type ImportStaffError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportStaffResponse 批量导入结果
type ImportStaffResponse struct {
	Total   int                `json:"total"`
	Success int                `json:"success"`
	Failed  int                `json:"failed"`
	Errors  []ImportStaffError `json:"errors,omitempty"`
}
