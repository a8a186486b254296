package model

// 角色
const (
	RoleAdmin          = "ADMIN"
	RoleManager        = "MANAGER"
	RoleDeveloperAdmin = "DEVELOPER_ADMIN"
	RoleStaff          = "STAFF"
	RoleClient         = "CLIENT"
)

// AdminRoles 可访问管理接口的角色
var AdminRoles = []string{RoleAdmin, RoleManager, RoleDeveloperAdmin}

// IsAdminRole 是否为管理角色
func IsAdminRole(role string) bool {
	for _, r := range AdminRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	FullName     string `gorm:"type:varchar(120);not null"                     json:"full_name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'STAFF'"      json:"role"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	StaffProfile *StaffProfile `gorm:"foreignKey:UserID;references:UserID" json:"staff_profile,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
