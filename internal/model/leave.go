package model

import "time"

// 假期类型中仅 UNPAID 计入缺勤扣款
const LeaveTypeUnpaid = "UNPAID"

// LeaveRequest 请假申请表 — 对应 leave_requests
type LeaveRequest struct {
	LeaveID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_id"`
	UserID          string    `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type            string    `gorm:"type:varchar(20);not null"                      json:"type"`
	StartDate       time.Time `gorm:"not null"                                       json:"start_date"`
	EndDate         time.Time `gorm:"not null"                                       json:"end_date"`
	Reason          string    `gorm:"type:text"                                      json:"reason"`
	Status          string    `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	ApproverID      *string   `gorm:"type:uuid"                                      json:"approver_id,omitempty"`
	RejectionReason string    `gorm:"type:text"                                      json:"rejection_reason,omitempty"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (LeaveRequest) TableName() string { return "leave_requests" }

// Covers 请假区间是否覆盖某日（日期均为本地零点）
func (l *LeaveRequest) Covers(day time.Time) bool {
	return !day.Before(l.StartDate) && !day.After(l.EndDate)
}
