package dto

// ── 考勤模块 DTO ──

// AttendanceResponse 考勤记录响应，时间均为 RFC3339（UTC）
type AttendanceResponse struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Date             string  `json:"date"` // 本地日期 YYYY-MM-DD
	CheckIn          *string `json:"check_in,omitempty"`
	CheckOut         *string `json:"check_out,omitempty"`
	WorkHours        float64 `json:"work_hours"`
	Status           string  `json:"status"`
	Method           string  `json:"method"`
	ShiftID          *string `json:"shift_id,omitempty"`
	ShiftSnapshot    string  `json:"shift_snapshot"`
	Criteria         string  `json:"criteria"`
	GraceTimeApplied int     `json:"grace_time_applied"`
	Notes            string  `json:"notes,omitempty"`
	Locked           bool    `json:"locked"`
}

// RecordsQuery 考勤记录查询，非管理员只能查询本人
type RecordsQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Start  string `form:"start"   binding:"required"`
	End    string `form:"end"     binding:"required"`
}

// AdminUpdateRequest 管理员直接修改考勤
type AdminUpdateRequest struct {
	UserID   string  `json:"user_id"   binding:"required,uuid"`
	Date     string  `json:"date"      binding:"required"`
	Status   *string `json:"status"    binding:"omitempty,oneof=PRESENT HALF_DAY ABSENT LEAVE"`
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	Notes    string  `json:"notes"     binding:"omitempty,max=255"`
	Override bool    `json:"override"`
}

// RecomputeRequest 重算区间内未锁定的考勤
type RecomputeRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	From   string `json:"from"    binding:"required"`
	To     string `json:"to"      binding:"required"`
}

// RecomputeResponse 重算结果
type RecomputeResponse struct {
	Updated int `json:"updated"`
}

// ── 补签 ──

// CreateRegularisationRequest 补签申请
type CreateRegularisationRequest struct {
	Date   string `json:"date"   binding:"required"`
	Type   string `json:"type"   binding:"required,max=30"`
	Reason string `json:"reason" binding:"required,max=500"`
}

// DecideRequest 审批请求（补签、请假共用）
type DecideRequest struct {
	Status          string `json:"status"           binding:"required,oneof=APPROVED REJECTED"`
	RejectionReason string `json:"rejection_reason" binding:"omitempty,max=500"`
}

// RegularisationResponse 补签申请响应
type RegularisationResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	UserName     string  `json:"user_name,omitempty"`
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	ExceedsLimit bool    `json:"exceeds_limit"`
	ApproverID   *string `json:"approver_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// RegularisationListQuery 补签列表查询
type RegularisationListQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Status string `form:"status"  binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// ── 月历 ──

// CalendarQuery 月历查询
type CalendarQuery struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	Month  int    `form:"month"   binding:"required,min=1,max=12"`
	Year   int    `form:"year"    binding:"required,min=2000,max=2100"`
}

// CalendarDay 单日状态：考勤状态或 LEAVE / HOLIDAY / WEEKOFF / ABSENT
type CalendarDay struct {
	Date      string  `json:"date"`
	Status    string  `json:"status"`
	CheckIn   *string `json:"check_in,omitempty"`
	CheckOut  *string `json:"check_out,omitempty"`
	WorkHours float64 `json:"work_hours"`
	Label     string  `json:"label,omitempty"` // 假日名称或假期类型
}

// CalendarStats 月度统计
type CalendarStats struct {
	TotalDays   int `json:"total_days"`
	Holidays    int `json:"holidays"`
	Leaves      int `json:"leaves"`
	Present     int `json:"present"`
	WorkingDays int `json:"working_days"`
}

// CalendarResponse 月历响应
type CalendarResponse struct {
	UserID string        `json:"user_id"`
	Month  int           `json:"month"`
	Year   int           `json:"year"`
	Days   []CalendarDay `json:"days"`
	Stats  CalendarStats `json:"stats"`
}

// ── 考勤机同步 ──

// PunchEvent 考勤机打卡事件
type PunchEvent struct {
	StaffNumber string `json:"staff_number" binding:"required"`
	Timestamp   string `json:"timestamp"    binding:"required"`
}

// SyncRequest 管理员上传考勤机日志
type SyncRequest struct {
	Logs []PunchEvent `json:"logs" binding:"required,min=1,max=5000,dive"`
}

// BridgeUploadRequest 桥接程序推送
type BridgeUploadRequest struct {
	DeviceID string       `json:"device_id" binding:"required,max=64"`
	Logs     []PunchEvent `json:"logs"      binding:"max=5000,dive"`
}

// SyncError 单条事件失败原因
type SyncError struct {
	Index       int    `json:"index"`
	StaffNumber string `json:"staff_number"`
	Reason      string `json:"reason"`
}

// SyncReport 批量同步结果
type SyncReport struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []SyncError `json:"errors,omitempty"`
}

// BridgeStatusResponse 桥接在线状态：ONLINE / OFFLINE / UNKNOWN
type BridgeStatusResponse struct {
	DeviceID string  `json:"device_id"`
	Status   string  `json:"status"`
	LastSeen *string `json:"last_seen,omitempty"`
}
