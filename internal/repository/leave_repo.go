package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"purple-port/backend/internal/model"
)

// LeaveRepository 请假数据访问接口
type LeaveRepository interface {
	Create(ctx context.Context, leave *model.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	Update(ctx context.Context, leave *model.LeaveRequest) error
	List(ctx context.Context, userID, status string) ([]model.LeaveRequest, error)
	// FindOverlapping 查询与 [start, end] 重叠且未被驳回的请假
	FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]model.LeaveRequest, error)
	// ListApprovedInRange 查询与 [from, to] 有交集的已批准请假
	ListApprovedInRange(ctx context.Context, userID string, from, to time.Time) ([]model.LeaveRequest, error)
}

type leaveRepo struct {
	db *gorm.DB
}

// NewLeaveRepo 创建 LeaveRepository 实例
func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, leave *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

func (r *leaveRepo) GetByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	var leave model.LeaveRequest
	if err := r.db.WithContext(ctx).Preload("User").Where("leave_id = ?", id).First(&leave).Error; err != nil {
		return nil, err
	}
	return &leave, nil
}

func (r *leaveRepo) Update(ctx context.Context, leave *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Omit("User").Save(leave).Error
}

func (r *leaveRepo) List(ctx context.Context, userID, status string) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	db := r.db.WithContext(ctx).Preload("User")
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("start_date DESC").Find(&list).Error
	return list, err
}

func (r *leaveRepo) FindOverlapping(ctx context.Context, userID string, start, end time.Time) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, model.RequestRejected).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Find(&list).Error
	return list, err
}

func (r *leaveRepo) ListApprovedInRange(ctx context.Context, userID string, from, to time.Time) ([]model.LeaveRequest, error) {
	var list []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.RequestApproved).
		Where("start_date <= ? AND end_date >= ?", to, from).
		Find(&list).Error
	return list, err
}

// HolidayRepository 假日数据访问接口
type HolidayRepository interface {
	Create(ctx context.Context, h *model.Holiday) error
	GetByID(ctx context.Context, id string) (*model.Holiday, error)
	GetByDate(ctx context.Context, date time.Time) (*model.Holiday, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]model.Holiday, error)
	Delete(ctx context.Context, id string) error
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) Create(ctx context.Context, h *model.Holiday) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *holidayRepo) GetByID(ctx context.Context, id string) (*model.Holiday, error) {
	var h model.Holiday
	if err := r.db.WithContext(ctx).Where("holiday_id = ?", id).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holidayRepo) GetByDate(ctx context.Context, date time.Time) (*model.Holiday, error) {
	var h model.Holiday
	if err := r.db.WithContext(ctx).Where("date = ?", date).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// ListInRange 查询 [from, to) 内的假日
func (r *holidayRepo) ListInRange(ctx context.Context, from, to time.Time) ([]model.Holiday, error) {
	var list []model.Holiday
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

func (r *holidayRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("holiday_id = ?", id).Delete(&model.Holiday{}).Error
}
