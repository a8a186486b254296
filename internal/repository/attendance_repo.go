package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purple-port/backend/internal/model"
)

// AttendanceRepository 考勤记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	Update(ctx context.Context, rec *model.AttendanceRecord) error
	Delete(ctx context.Context, id string) error
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.AttendanceRecord, error)
	// ListByUserRange 查询 [from, to] 区间（按日期键闭区间）的记录，按日期升序
	ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *attendanceRepo) Update(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *attendanceRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("attendance_id = ?", id).Delete(&model.AttendanceRecord{}).Error
}

// GetByUserAndDate 行级锁读取，事务内与后续更新串行
func (r *attendanceRepo) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND date = ?", userID, date).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) ListByUserRange(ctx context.Context, userID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var list []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&list).Error
	return list, err
}

// RegularisationRepository 补签申请数据访问接口
type RegularisationRepository interface {
	Create(ctx context.Context, req *model.RegularisationRequest) error
	GetByID(ctx context.Context, id string) (*model.RegularisationRequest, error)
	Update(ctx context.Context, req *model.RegularisationRequest) error
	CountByUserInRange(ctx context.Context, userID string, from, to time.Time) (int64, error)
	List(ctx context.Context, userID, status string) ([]model.RegularisationRequest, error)
}

type regularisationRepo struct {
	db *gorm.DB
}

// NewRegularisationRepo 创建 RegularisationRepository 实例
func NewRegularisationRepo(db *gorm.DB) RegularisationRepository {
	return &regularisationRepo{db: db}
}

func (r *regularisationRepo) Create(ctx context.Context, req *model.RegularisationRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *regularisationRepo) GetByID(ctx context.Context, id string) (*model.RegularisationRequest, error) {
	var req model.RegularisationRequest
	if err := r.db.WithContext(ctx).Where("request_id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *regularisationRepo) Update(ctx context.Context, req *model.RegularisationRequest) error {
	return r.db.WithContext(ctx).Omit("User").Save(req).Error
}

// CountByUserInRange 统计 [from, to) 内的补签申请数（不含已驳回）
func (r *regularisationRepo) CountByUserInRange(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.RegularisationRequest{}).
		Where("user_id = ? AND date >= ? AND date < ? AND status <> ?", userID, from, to, model.RequestRejected).
		Count(&n).Error
	return n, err
}

func (r *regularisationRepo) List(ctx context.Context, userID, status string) ([]model.RegularisationRequest, error) {
	var list []model.RegularisationRequest
	db := r.db.WithContext(ctx).Preload("User")
	if userID != "" {
		db = db.Where("user_id = ?", userID)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}
