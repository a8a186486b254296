package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	StaffProfile    StaffProfileRepository
	Shift           ShiftRepository
	ShiftAssignment ShiftAssignmentRepository
	Attendance      AttendanceRepository
	Regularisation  RegularisationRepository
	Leave           LeaveRepository
	Holiday         HolidayRepository
	AccountHead     AccountHeadRepository
	Ledger          LedgerRepository
	Journal         JournalRepository
	Payroll         PayrollRepository
	SystemConfig    SystemConfigRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		StaffProfile:    NewStaffProfileRepo(db),
		Shift:           NewShiftRepo(db),
		ShiftAssignment: NewShiftAssignmentRepo(db),
		Attendance:      NewAttendanceRepo(db),
		Regularisation:  NewRegularisationRepo(db),
		Leave:           NewLeaveRepo(db),
		Holiday:         NewHolidayRepo(db),
		AccountHead:     NewAccountHeadRepo(db),
		Ledger:          NewLedgerRepo(db),
		Journal:         NewJournalRepo(db),
		Payroll:         NewPayrollRepo(db),
		SystemConfig:    NewSystemConfigRepo(db),
	}
}

// BeginTx 开启事务。单元测试中聚合由 mock 组装、db 为空，此时返回 nil 事务，
// 调用方以 tx != nil 判断是否需要提交/回滚。
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
