package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purple-port/backend/internal/model"
)

// StaffProfileRepository 员工档案数据访问接口
type StaffProfileRepository interface {
	Create(ctx context.Context, profile *model.StaffProfile) error
	GetByID(ctx context.Context, id string) (*model.StaffProfile, error)
	// GetForUpdate 锁定档案行（SELECT … FOR UPDATE），用于串行化同一员工的班次分配
	GetForUpdate(ctx context.Context, id string) (*model.StaffProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.StaffProfile, error)
	GetByStaffNumber(ctx context.Context, staffNumber string) (*model.StaffProfile, error)
	List(ctx context.Context) ([]model.StaffProfile, error)
	Update(ctx context.Context, profile *model.StaffProfile) error
}

type staffProfileRepo struct {
	db *gorm.DB
}

// NewStaffProfileRepo 创建 StaffProfileRepository 实例
func NewStaffProfileRepo(db *gorm.DB) StaffProfileRepository {
	return &staffProfileRepo{db: db}
}

func (r *staffProfileRepo) Create(ctx context.Context, profile *model.StaffProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *staffProfileRepo) GetByID(ctx context.Context, id string) (*model.StaffProfile, error) {
	return r.first(ctx, "staff_profile_id = ?", id)
}

func (r *staffProfileRepo) GetForUpdate(ctx context.Context, id string) (*model.StaffProfile, error) {
	var profile model.StaffProfile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("staff_profile_id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *staffProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.StaffProfile, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *staffProfileRepo) GetByStaffNumber(ctx context.Context, staffNumber string) (*model.StaffProfile, error) {
	return r.first(ctx, "staff_number = ?", staffNumber)
}

func (r *staffProfileRepo) List(ctx context.Context) ([]model.StaffProfile, error) {
	var profiles []model.StaffProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.user_id = staff_profiles.user_id AND users.deleted_at IS NULL").
		Order("staff_profiles.staff_number ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *staffProfileRepo) Update(ctx context.Context, profile *model.StaffProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *staffProfileRepo) first(ctx context.Context, query string, arg interface{}) (*model.StaffProfile, error) {
	var profile model.StaffProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where(query, arg).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
