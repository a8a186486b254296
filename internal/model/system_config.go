package model

// SystemConfig 系统配置表 — 对应 system_config（单行强类型），保存可在线调整的考勤策略
type SystemConfig struct {
	Singleton              bool   `gorm:"primaryKey;default:true"                  json:"-"`
	DefaultShiftStart      string `gorm:"type:varchar(5);not null;default:'09:00'" json:"default_shift_start"`
	DefaultShiftEnd        string `gorm:"type:varchar(5);not null;default:'18:00'" json:"default_shift_end"`
	DefaultGraceMinutes    int    `gorm:"not null;default:15"                      json:"default_grace_minutes"`
	OvernightCutoffHour    int    `gorm:"not null;default:7"                       json:"overnight_cutoff_hour"`
	RegularisationMonthCap int    `gorm:"not null;default:3"                       json:"regularisation_month_cap"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }
