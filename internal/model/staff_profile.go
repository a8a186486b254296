package model

import "github.com/shopspring/decimal"

// StaffProfile 员工档案表 — 对应 staff_profiles
// StaffNumber 即考勤机上的员工编号
type StaffProfile struct {
	StaffProfileID         string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"staff_profile_id"`
	UserID                 string          `gorm:"type:uuid;not null;uniqueIndex"                 json:"user_id"`
	StaffNumber            string          `gorm:"type:varchar(30);not null;uniqueIndex"          json:"staff_number"`
	Department             string          `gorm:"type:varchar(60)"                               json:"department"`
	Designation            string          `gorm:"type:varchar(60)"                               json:"designation"`
	BaseSalary             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"base_salary"`
	HRA                    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"hra"`
	ConveyanceAllowance    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"conveyance_allowance"`
	AccommodationAllowance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"accommodation_allowance"`
	Allowances             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"allowances"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (StaffProfile) TableName() string { return "staff_profiles" }
