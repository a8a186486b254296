package dto

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	Name                string `json:"name"                  binding:"required,max=60"`
	StartTime           string `json:"start_time"            binding:"required,len=5"`
	EndTime             string `json:"end_time"              binding:"required,len=5"`
	DefaultGraceMinutes *int   `json:"default_grace_minutes" binding:"omitempty,min=0,max=120"`
}

// UpdateShiftRequest 更新班次请求
type UpdateShiftRequest struct {
	Name                *string `json:"name"                  binding:"omitempty,max=60"`
	StartTime           *string `json:"start_time"            binding:"omitempty,len=5"`
	EndTime             *string `json:"end_time"              binding:"omitempty,len=5"`
	DefaultGraceMinutes *int    `json:"default_grace_minutes" binding:"omitempty,min=0,max=120"`
}

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	StartTime           string `json:"start_time"`
	EndTime             string `json:"end_time"`
	DefaultGraceMinutes int    `json:"default_grace_minutes"`
	Overnight           bool   `json:"overnight"`
}

// AssignShiftRequest 分配班次请求，日期格式 YYYY-MM-DD，to_date 为空表示长期
type AssignShiftRequest struct {
	StaffProfileID string  `json:"staff_profile_id" binding:"required,uuid"`
	ShiftID        string  `json:"shift_id"         binding:"required,uuid"`
	FromDate       string  `json:"from_date"        binding:"required"`
	ToDate         *string `json:"to_date"`
	GraceOverride  *int    `json:"grace_override"   binding:"omitempty,min=0,max=120"`
}

// AssignmentResponse 班次分配响应
type AssignmentResponse struct {
	ID             string  `json:"id"`
	StaffProfileID string  `json:"staff_profile_id"`
	ShiftID        string  `json:"shift_id"`
	ShiftName      string  `json:"shift_name,omitempty"`
	FromDate       string  `json:"from_date"`
	ToDate         *string `json:"to_date,omitempty"`
	GraceOverride  *int    `json:"grace_override,omitempty"`
	IsActive       bool    `json:"is_active"`
	Recomputed     int     `json:"recomputed"`
}

// ResolvedShiftResponse 某日生效班次
type ResolvedShiftResponse struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	GraceMinutes int    `json:"grace_minutes"`
	IsDefault    bool   `json:"is_default"`
}
