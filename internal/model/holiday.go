package model

import "time"

// Holiday 法定假日表 — 对应 holidays
type Holiday struct {
	HolidayID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Date      time.Time `gorm:"not null;uniqueIndex"                           json:"date"`
	BaseModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }
