package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"purple-port/backend/internal/model"
)

// PayrollRepository 工资批次与工资单数据访问接口
type PayrollRepository interface {
	CreateRun(ctx context.Context, run *model.PayrollRun) error
	GetRun(ctx context.Context, month, year int) (*model.PayrollRun, error)
	// GetRunForUpdate 锁定批次行，保存工资单与确认发放前调用
	GetRunForUpdate(ctx context.Context, month, year int) (*model.PayrollRun, error)
	GetRunByID(ctx context.Context, runID string) (*model.PayrollRun, error)
	UpdateRun(ctx context.Context, run *model.PayrollRun) error
	ListRuns(ctx context.Context, year int) ([]model.PayrollRun, error)

	GetSlip(ctx context.Context, runID, userID string) (*model.PayrollSlip, error)
	GetSlipByID(ctx context.Context, slipID string) (*model.PayrollSlip, error)
	// UpsertSlip 按 (run_id, user_id) 覆盖写入
	UpsertSlip(ctx context.Context, slip *model.PayrollSlip) error
	ListSlips(ctx context.Context, runID string) ([]model.PayrollSlip, error)
	DeleteSlip(ctx context.Context, slipID string) error
}

type payrollRepo struct {
	db *gorm.DB
}

// NewPayrollRepo 创建 PayrollRepository 实例
func NewPayrollRepo(db *gorm.DB) PayrollRepository {
	return &payrollRepo{db: db}
}

func (r *payrollRepo) CreateRun(ctx context.Context, run *model.PayrollRun) error {
	return r.db.WithContext(ctx).Omit("Slips").Create(run).Error
}

func (r *payrollRepo) GetRun(ctx context.Context, month, year int) (*model.PayrollRun, error) {
	var run model.PayrollRun
	if err := r.db.WithContext(ctx).Where("month = ? AND year = ?", month, year).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *payrollRepo) GetRunForUpdate(ctx context.Context, month, year int) (*model.PayrollRun, error) {
	var run model.PayrollRun
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("month = ? AND year = ?", month, year).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *payrollRepo) GetRunByID(ctx context.Context, runID string) (*model.PayrollRun, error) {
	var run model.PayrollRun
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *payrollRepo) UpdateRun(ctx context.Context, run *model.PayrollRun) error {
	return r.db.WithContext(ctx).Omit("Slips").Save(run).Error
}

func (r *payrollRepo) ListRuns(ctx context.Context, year int) ([]model.PayrollRun, error) {
	var runs []model.PayrollRun
	db := r.db.WithContext(ctx)
	if year > 0 {
		db = db.Where("year = ?", year)
	}
	err := db.Order("year DESC, month DESC").Find(&runs).Error
	return runs, err
}

func (r *payrollRepo) GetSlip(ctx context.Context, runID, userID string) (*model.PayrollSlip, error) {
	var slip model.PayrollSlip
	if err := r.db.WithContext(ctx).Where("run_id = ? AND user_id = ?", runID, userID).First(&slip).Error; err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *payrollRepo) GetSlipByID(ctx context.Context, slipID string) (*model.PayrollSlip, error) {
	var slip model.PayrollSlip
	if err := r.db.WithContext(ctx).Preload("User").Where("slip_id = ?", slipID).First(&slip).Error; err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *payrollRepo) UpsertSlip(ctx context.Context, slip *model.PayrollSlip) error {
	return r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "run_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"basic_salary", "hra", "conveyance_allowance", "accommodation_allowance",
				"allowances", "incentives", "lop_days", "lop_deduction", "advance_salary",
				"other_deductions", "total_working_days", "net_pay", "status",
				"updated_by", "updated_at",
			}),
		}).
		Create(slip).Error
}

func (r *payrollRepo) ListSlips(ctx context.Context, runID string) ([]model.PayrollSlip, error) {
	var slips []model.PayrollSlip
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&slips).Error
	return slips, err
}

func (r *payrollRepo) DeleteSlip(ctx context.Context, slipID string) error {
	return r.db.WithContext(ctx).Where("slip_id = ?", slipID).Delete(&model.PayrollSlip{}).Error
}
