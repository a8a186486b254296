package dto

import "github.com/shopspring/decimal"

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID           string                `json:"id"`
	FullName     string                `json:"full_name"`
	Email        string                `json:"email"`
	Role         string                `json:"role"`
	IsActive     bool                  `json:"is_active"`
	StaffProfile *StaffProfileResponse `json:"staff_profile,omitempty"`
}

// StaffProfileResponse 员工档案
type StaffProfileResponse struct {
	ID                     string          `json:"id"`
	StaffNumber            string          `json:"staff_number"`
	Department             string          `json:"department"`
	Designation            string          `json:"designation"`
	BaseSalary             decimal.Decimal `json:"base_salary"`
	HRA                    decimal.Decimal `json:"hra"`
	ConveyanceAllowance    decimal.Decimal `json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `json:"accommodation_allowance"`
	Allowances             decimal.Decimal `json:"allowances"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
