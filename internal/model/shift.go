package model

import "time"

// Shift 班次表 — 对应 shifts
type Shift struct {
	ShiftID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	Name                string `gorm:"type:varchar(60);not null"                      json:"name"`
	StartTime           string `gorm:"type:varchar(5);not null"                       json:"start_time"` // HH:MM
	EndTime             string `gorm:"type:varchar(5);not null"                       json:"end_time"`   // HH:MM，小于开始时间为跨夜
	DefaultGraceMinutes int    `gorm:"not null;default:15"                            json:"default_grace_minutes"`
	BaseModel
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// StaffShiftAssignment 员工班次分配表 — 对应 staff_shift_assignments
// 同一员工的有效分配区间 [FromDate, ToDate] 互不重叠，ToDate 为空表示长期有效
type StaffShiftAssignment struct {
	AssignmentID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	StaffProfileID string     `gorm:"type:uuid;not null;index"                       json:"staff_profile_id"`
	ShiftID        string     `gorm:"type:uuid;not null"                             json:"shift_id"`
	FromDate       time.Time  `gorm:"not null"                                       json:"from_date"`
	ToDate         *time.Time `json:"to_date,omitempty"`
	GraceOverride  *int       `json:"grace_override,omitempty"`
	IsActive       bool       `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Shift *Shift `gorm:"foreignKey:ShiftID;references:ShiftID" json:"shift,omitempty"`
}

// TableName 指定表名
func (StaffShiftAssignment) TableName() string { return "staff_shift_assignments" }
