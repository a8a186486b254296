package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"purple-port/backend/internal/model"
)

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	List(ctx context.Context) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	Delete(ctx context.Context, id string) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	if err := r.db.WithContext(ctx).Where("shift_id = ?", id).First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).Order("start_time ASC, name ASC").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *shiftRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("shift_id = ?", id).Delete(&model.Shift{}).Error
}

// ShiftAssignmentRepository 班次分配数据访问接口
type ShiftAssignmentRepository interface {
	Create(ctx context.Context, a *model.StaffShiftAssignment) error
	GetByID(ctx context.Context, id string) (*model.StaffShiftAssignment, error)
	// FindActiveForDate 查询某日生效的分配（不预加载班次，便于识别孤立引用）
	FindActiveForDate(ctx context.Context, staffProfileID string, date time.Time) (*model.StaffShiftAssignment, error)
	// FindOverlapping 查询与 [from, to] 重叠的有效分配，to 为空表示无限期
	FindOverlapping(ctx context.Context, staffProfileID string, from time.Time, to *time.Time) ([]model.StaffShiftAssignment, error)
	ListByStaff(ctx context.Context, staffProfileID string) ([]model.StaffShiftAssignment, error)
	Deactivate(ctx context.Context, id string) error
	CountByShift(ctx context.Context, shiftID string) (int64, error)
}

type shiftAssignmentRepo struct {
	db *gorm.DB
}

// NewShiftAssignmentRepo 创建 ShiftAssignmentRepository 实例
func NewShiftAssignmentRepo(db *gorm.DB) ShiftAssignmentRepository {
	return &shiftAssignmentRepo{db: db}
}

// openEnded 无截止日期分配的比较上界
var openEnded = time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)

func (r *shiftAssignmentRepo) Create(ctx context.Context, a *model.StaffShiftAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *shiftAssignmentRepo) GetByID(ctx context.Context, id string) (*model.StaffShiftAssignment, error) {
	var a model.StaffShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *shiftAssignmentRepo) FindActiveForDate(ctx context.Context, staffProfileID string, date time.Time) (*model.StaffShiftAssignment, error) {
	var a model.StaffShiftAssignment
	err := r.db.WithContext(ctx).
		Where("staff_profile_id = ? AND is_active = ?", staffProfileID, true).
		Where("from_date <= ? AND (to_date IS NULL OR to_date >= ?)", date, date).
		Order("from_date DESC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *shiftAssignmentRepo) FindOverlapping(ctx context.Context, staffProfileID string, from time.Time, to *time.Time) ([]model.StaffShiftAssignment, error) {
	end := openEnded
	if to != nil {
		end = *to
	}
	var list []model.StaffShiftAssignment
	err := r.db.WithContext(ctx).
		Where("staff_profile_id = ? AND is_active = ?", staffProfileID, true).
		Where("from_date <= ? AND (to_date IS NULL OR to_date >= ?)", end, from).
		Order("from_date ASC").
		Find(&list).Error
	return list, err
}

func (r *shiftAssignmentRepo) ListByStaff(ctx context.Context, staffProfileID string) ([]model.StaffShiftAssignment, error) {
	var list []model.StaffShiftAssignment
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("staff_profile_id = ? AND is_active = ?", staffProfileID, true).
		Order("from_date DESC").
		Find(&list).Error
	return list, err
}

func (r *shiftAssignmentRepo) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.StaffShiftAssignment{}).
		Where("assignment_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *shiftAssignmentRepo) CountByShift(ctx context.Context, shiftID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.StaffShiftAssignment{}).
		Where("shift_id = ?", shiftID).
		Count(&n).Error
	return n, err
}
