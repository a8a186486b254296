package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新考勤策略请求
type UpdateSystemConfigRequest struct {
	DefaultShiftStart      *string `json:"default_shift_start"      binding:"omitempty,len=5"`
	DefaultShiftEnd        *string `json:"default_shift_end"        binding:"omitempty,len=5"`
	DefaultGraceMinutes    *int    `json:"default_grace_minutes"    binding:"omitempty,min=0,max=120"`
	OvernightCutoffHour    *int    `json:"overnight_cutoff_hour"    binding:"omitempty,min=0,max=23"`
	RegularisationMonthCap *int    `json:"regularisation_month_cap" binding:"omitempty,min=0,max=31"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	DefaultShiftStart      string `json:"default_shift_start"`
	DefaultShiftEnd        string `json:"default_shift_end"`
	DefaultGraceMinutes    int    `json:"default_grace_minutes"`
	OvernightCutoffHour    int    `json:"overnight_cutoff_hour"`
	RegularisationMonthCap int    `json:"regularisation_month_cap"`
	UpdatedAt              string `json:"updated_at,omitempty"`
}
