package dto

// ── 请假与假日模块 DTO ──

// ApplyLeaveRequest 请假申请
type ApplyLeaveRequest struct {
	Type      string `json:"type"       binding:"required,oneof=CASUAL SICK EARNED UNPAID MATERNITY PATERNITY COMP_OFF"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date"   binding:"required"`
	Reason    string `json:"reason"     binding:"omitempty,max=500"`
}

// LeaveListQuery 请假列表查询
type LeaveListQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// LeaveResponse 请假响应
type LeaveResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	UserName        string  `json:"user_name,omitempty"`
	Type            string  `json:"type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
}

// CreateHolidayRequest 新增假日
type CreateHolidayRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Date string `json:"date" binding:"required"`
}

// YearQuery 按年份查询（假日、工资批次）
type YearQuery struct {
	Year int `form:"year" binding:"required,min=2000,max=2100"`
}

// HolidayResponse 假日响应
type HolidayResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
}
