package model

import (
	"time"

	"purple-port/backend/internal/attendance"
)

// 打卡方式
const (
	MethodWeb            = "WEB"
	MethodBiometric      = "BIOMETRIC"
	MethodManualAdmin    = "MANUAL_ADMIN"
	MethodRegularisation = "REGULARISATION"
	MethodSystem         = "SYSTEM"
)

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// Date 为组织本地零点对应的 UTC 时刻，(user_id, date) 唯一
type AttendanceRecord struct {
	AttendanceID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	UserID           string     `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_user_date" json:"user_id"`
	Date             time.Time  `gorm:"not null;uniqueIndex:uq_attendance_user_date"   json:"date"`
	CheckIn          *time.Time `json:"check_in,omitempty"`
	CheckOut         *time.Time `json:"check_out,omitempty"`
	WorkHours        float64    `gorm:"type:numeric(5,2);not null;default:0"           json:"work_hours"`
	Status           string     `gorm:"type:varchar(20);not null"                      json:"status"`
	Method           string     `gorm:"type:varchar(20);not null;default:'WEB'"        json:"method"`
	ShiftID          *string    `gorm:"type:uuid"                                      json:"shift_id,omitempty"`
	ShiftSnapshot    string     `gorm:"type:varchar(11)"                               json:"shift_snapshot"`
	Criteria         string     `gorm:"type:varchar(20)"                               json:"criteria"`
	GraceTimeApplied int        `gorm:"not null;default:0"                             json:"grace_time_applied"`
	Notes            string     `gorm:"type:varchar(255)"                              json:"notes,omitempty"`
	BaseModel
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// Locked 人工修改或已补签的记录不参与自动重算
func (r *AttendanceRecord) Locked() bool {
	return r.Method == MethodManualAdmin || r.Status == string(attendance.StatusRegularized)
}

// 申请审批状态（补签、请假共用）
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// RegularisationRequest 补签申请表 — 对应 regularisation_requests
type RegularisationRequest struct {
	RequestID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	UserID       string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Date         time.Time `gorm:"not null"                                       json:"date"`
	Type         string    `gorm:"type:varchar(30);not null"                      json:"type"`
	Reason       string    `gorm:"type:text;not null"                             json:"reason"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	ExceedsLimit bool      `gorm:"not null;default:false"                         json:"exceeds_limit"`
	ApproverID   *string   `gorm:"type:uuid"                                      json:"approver_id,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (RegularisationRequest) TableName() string { return "regularisation_requests" }
