package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/ledger"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/payroll"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

// ── 薪资模块业务错误 ──

var (
	ErrPayrollLocked      = pkgerrors.Conflict("Payroll is locked.")
	ErrPayrollRunNotFound = pkgerrors.NotFound("工资批次不存在")
	ErrSlipNotFound       = pkgerrors.NotFound("工资单不存在")
	ErrStaffProfileAbsent = pkgerrors.NotFound("员工档案不存在")
	ErrNegativeComponent  = pkgerrors.Validation("薪资组成不能为负")
)

// 薪资相关系统账户所属科目
const (
	headCodeExpense   = "6000"
	headCodeLiability = "2000"
)

// PayrollService 薪资计算与发放接口
type PayrollService interface {
	ComputeLOP(ctx context.Context, userID string, month, year int) (decimal.Decimal, error)
	GetSalaryDraft(ctx context.Context, userID string, month, year int) (*dto.SalaryDraftResponse, error)
	SavePayrollSlip(ctx context.Context, req *dto.SaveSlipRequest, callerID string) (*dto.SlipResponse, error)
	RejectSlip(ctx context.Context, slipID string) error
	ListRuns(ctx context.Context, year int) ([]dto.PayrollRunResponse, error)
	GetPayrollRunDetails(ctx context.Context, month, year int) (*dto.PayrollRunResponse, error)
	ConfirmPayrollRun(ctx context.Context, month, year int, callerID string) (*dto.PayrollRunResponse, error)
}

type payrollService struct {
	acct   config.AccountingConfig
	repo   *repository.Repository
	clock  attendance.Clock
	now    func() time.Time
	logger *zap.Logger
}

// NewPayrollService 创建 PayrollService 实例
func NewPayrollService(cfg *config.Config, repo *repository.Repository, clock attendance.Clock, now func() time.Time, logger *zap.Logger) PayrollService {
	return &payrollService{acct: cfg.Accounting, repo: repo, clock: clock, now: now, logger: logger}
}

// ────────────────────── ComputeLOP ──────────────────────

func (s *payrollService) ComputeLOP(ctx context.Context, userID string, month, year int) (decimal.Decimal, error) {
	from, next := s.clock.MonthRange(month, year)
	to := next.AddDate(0, 0, -1)

	records, err := s.repo.Attendance.ListByUserRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询月度考勤失败", zap.String("user_id", userID), zap.Error(err))
		return decimal.Zero, err
	}
	leaves, err := s.repo.Leave.ListApprovedInRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询已批准请假失败", zap.String("user_id", userID), zap.Error(err))
		return decimal.Zero, err
	}

	days := make([]payroll.DayStatus, 0, len(records))
	for _, r := range records {
		days = append(days, payroll.DayStatus{Date: r.Date, Status: attendance.Status(r.Status)})
	}
	paid := make([]payroll.PaidLeave, 0, len(leaves))
	for _, l := range leaves {
		if l.Type == model.LeaveTypeUnpaid {
			continue
		}
		paid = append(paid, payroll.PaidLeave{Start: l.StartDate, End: l.EndDate})
	}
	return payroll.CountLOP(days, paid), nil
}

// ────────────────────── GetSalaryDraft ──────────────────────

func (s *payrollService) GetSalaryDraft(ctx context.Context, userID string, month, year int) (*dto.SalaryDraftResponse, error) {
	profile, err := s.repo.StaffProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffProfileAbsent
		}
		s.logger.Error("查询员工档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	lop, err := s.ComputeLOP(ctx, userID, month, year)
	if err != nil {
		return nil, err
	}
	workingDays, err := s.workingDays(ctx, month, year)
	if err != nil {
		return nil, err
	}

	c := payroll.Components{
		Basic:           profile.BaseSalary,
		HRA:             profile.HRA,
		Conveyance:      profile.ConveyanceAllowance,
		Accommodation:   profile.AccommodationAllowance,
		Allowances:      profile.Allowances,
		Incentives:      decimal.Zero,
		AdvanceSalary:   decimal.Zero,
		OtherDeductions: decimal.Zero,
	}
	draft := &dto.SalaryDraftResponse{
		UserID:           userID,
		Month:            month,
		Year:             year,
		LOPDays:          lop,
		TotalWorkingDays: workingDays,
	}
	if profile.User != nil {
		draft.FullName = profile.User.FullName
	}

	// 已有工资单时沿用其手工录入项，LOP 取最新计算值
	run, err := s.repo.Payroll.GetRun(ctx, month, year)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询工资批次失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	if run != nil {
		draft.RunStatus = run.Status
		slip, err := s.repo.Payroll.GetSlip(ctx, run.RunID, userID)
		switch {
		case err == nil:
			c = slipComponents(slip)
			draft.SlipID = &slip.SlipID
			if run.Locked() {
				draft.LOPDays = slip.LOPDays
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			s.logger.Error("查询工资单失败", zap.String("run_id", run.RunID), zap.Error(err))
			return nil, err
		}
	}

	draft.BasicSalary = c.Basic
	draft.HRA = c.HRA
	draft.ConveyanceAllowance = c.Conveyance
	draft.AccommodationAllowance = c.Accommodation
	draft.Allowances = c.Allowances
	draft.Incentives = c.Incentives
	draft.AdvanceSalary = c.AdvanceSalary
	draft.OtherDeductions = c.OtherDeductions
	draft.DailyWage = ledger.Money(payroll.DailyWage(c))
	draft.LOPDeduction = payroll.LOPDeduction(c, draft.LOPDays)
	draft.NetPay = payroll.NetPay(c, draft.LOPDeduction)
	return draft, nil
}

// ────────────────────── SavePayrollSlip ──────────────────────

func (s *payrollService) SavePayrollSlip(ctx context.Context, req *dto.SaveSlipRequest, callerID string) (*dto.SlipResponse, error) {
	c := payroll.Components{
		Basic:           ledger.Money(req.BasicSalary),
		HRA:             ledger.Money(req.HRA),
		Conveyance:      ledger.Money(req.ConveyanceAllowance),
		Accommodation:   ledger.Money(req.AccommodationAllowance),
		Allowances:      ledger.Money(req.Allowances),
		Incentives:      ledger.Money(req.Incentives),
		AdvanceSalary:   ledger.Money(req.AdvanceSalary),
		OtherDeductions: ledger.Money(req.OtherDeductions),
	}
	for _, v := range []decimal.Decimal{c.Basic, c.HRA, c.Conveyance, c.Accommodation, c.Allowances, c.Incentives, c.AdvanceSalary, c.OtherDeductions} {
		if v.IsNegative() {
			return nil, ErrNegativeComponent
		}
	}

	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	var lop decimal.Decimal
	if req.LOPDays != nil {
		lop = req.LOPDays.Round(1)
		if lop.IsNegative() {
			return nil, ErrNegativeComponent
		}
	} else {
		computed, err := s.ComputeLOP(ctx, req.UserID, req.Month, req.Year)
		if err != nil {
			return nil, err
		}
		lop = computed
	}
	workingDays := req.TotalWorkingDays
	if workingDays == 0 {
		wd, err := s.workingDays(ctx, req.Month, req.Year)
		if err != nil {
			return nil, err
		}
		workingDays = wd
	}

	lopDeduction := payroll.LOPDeduction(c, lop)
	slip := &model.PayrollSlip{
		UserID:                 req.UserID,
		BasicSalary:            c.Basic,
		HRA:                    c.HRA,
		ConveyanceAllowance:    c.Conveyance,
		AccommodationAllowance: c.Accommodation,
		Allowances:             c.Allowances,
		Incentives:             c.Incentives,
		LOPDays:                lop,
		LOPDeduction:           lopDeduction,
		AdvanceSalary:          c.AdvanceSalary,
		OtherDeductions:        c.OtherDeductions,
		TotalWorkingDays:       workingDays,
		NetPay:                 payroll.NetPay(c, lopDeduction),
		Status:                 model.SlipPending,
	}
	slip.CreatedBy = &callerID
	slip.UpdatedBy = &callerID

	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		run, err := findOrCreateRun(ctx, txRepo, req.Month, req.Year, callerID)
		if err != nil {
			return err
		}
		if run.Locked() {
			return ErrPayrollLocked
		}
		slip.RunID = run.RunID
		return txRepo.Payroll.UpsertSlip(ctx, slip)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("保存工资单失败", zap.String("user_id", req.UserID), zap.Error(err))
		}
		return nil, err
	}

	saved, err := s.repo.Payroll.GetSlip(ctx, slip.RunID, req.UserID)
	if err != nil {
		s.logger.Error("查询工资单失败", zap.String("run_id", slip.RunID), zap.Error(err))
		return nil, err
	}
	resp := toSlipResponse(saved)
	return &resp, nil
}

// ────────────────────── RejectSlip ──────────────────────

func (s *payrollService) RejectSlip(ctx context.Context, slipID string) error {
	slip, err := s.repo.Payroll.GetSlipByID(ctx, slipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlipNotFound
		}
		s.logger.Error("查询工资单失败", zap.String("id", slipID), zap.Error(err))
		return err
	}
	run, err := s.repo.Payroll.GetRunByID(ctx, slip.RunID)
	if err != nil {
		s.logger.Error("查询工资批次失败", zap.String("run_id", slip.RunID), zap.Error(err))
		return err
	}
	if run.Locked() || slip.Status == model.SlipPaid {
		return ErrPayrollLocked
	}

	if err := s.repo.Payroll.DeleteSlip(ctx, slipID); err != nil {
		s.logger.Error("删除工资单失败", zap.String("id", slipID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListRuns / GetPayrollRunDetails ──────────────────────

func (s *payrollService) ListRuns(ctx context.Context, year int) ([]dto.PayrollRunResponse, error) {
	runs, err := s.repo.Payroll.ListRuns(ctx, year)
	if err != nil {
		s.logger.Error("查询工资批次列表失败", zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	result := make([]dto.PayrollRunResponse, 0, len(runs))
	for i := range runs {
		result = append(result, *toRunResponse(&runs[i], nil))
	}
	return result, nil
}

func (s *payrollService) GetPayrollRunDetails(ctx context.Context, month, year int) (*dto.PayrollRunResponse, error) {
	run, err := s.repo.Payroll.GetRun(ctx, month, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayrollRunNotFound
		}
		s.logger.Error("查询工资批次失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	slips, err := s.repo.Payroll.ListSlips(ctx, run.RunID)
	if err != nil {
		s.logger.Error("查询工资单列表失败", zap.String("run_id", run.RunID), zap.Error(err))
		return nil, err
	}
	return toRunResponse(run, slips), nil
}

// ────────────────────── ConfirmPayrollRun ──────────────────────

func (s *payrollService) ConfirmPayrollRun(ctx context.Context, month, year int, callerID string) (*dto.PayrollRunResponse, error) {
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		run, err := txRepo.Payroll.GetRunForUpdate(ctx, month, year)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPayrollRunNotFound
			}
			return err
		}
		if run.Locked() {
			return ErrPayrollLocked
		}

		slips, err := txRepo.Payroll.ListSlips(ctx, run.RunID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, sl := range slips {
			total = total.Add(sl.NetPay)
		}

		if total.IsPositive() {
			expense, err := ensureLedger(ctx, txRepo, EnsureLedgerInput{
				EntityType: model.EntityInternal, HeadCode: headCodeExpense, Name: s.acct.SalaryExpenseLedger,
			})
			if err != nil {
				return err
			}
			payable, err := ensureLedger(ctx, txRepo, EnsureLedgerInput{
				EntityType: model.EntityInternal, HeadCode: headCodeLiability, Name: s.acct.SalaryPayableLedger,
			})
			if err != nil {
				return err
			}
			_, periodEnd := s.clock.MonthRange(month, year)
			entry, err := postEntry(ctx, txRepo, PostEntryInput{
				Date:           periodEnd.AddDate(0, 0, -1),
				Description:    payrollDescription(month, year),
				Amount:         total,
				Type:           model.EntryJournal,
				DebitLedgerID:  expense.LedgerID,
				CreditLedgerID: payable.LedgerID,
				Reference:      "PAYROLL",
				CreatedBy:      callerID,
			})
			if err != nil {
				return err
			}
			run.EntryID = &entry.EntryID
		}

		processed := s.now().UTC()
		run.Status = model.PayrollPaid
		run.ProcessedAt = &processed
		run.UpdatedBy = &callerID
		if err := txRepo.Payroll.UpdateRun(ctx, run); err != nil {
			return err
		}
		for i := range slips {
			slips[i].Status = model.SlipPaid
			slips[i].UpdatedBy = &callerID
			if err := txRepo.Payroll.UpsertSlip(ctx, &slips[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("确认工资发放失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("工资批次已发放", zap.Int("month", month), zap.Int("year", year))
	return s.GetPayrollRunDetails(ctx, month, year)
}

// ── 内部辅助方法 ──

func (s *payrollService) workingDays(ctx context.Context, month, year int) (int, error) {
	from, next := s.clock.MonthRange(month, year)
	holidays, err := s.repo.Holiday.ListInRange(ctx, from, next)
	if err != nil {
		s.logger.Error("查询假日失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return 0, err
	}
	dates := make([]time.Time, 0, len(holidays))
	for _, h := range holidays {
		dates = append(dates, h.Date)
	}
	return payroll.WorkingDays(s.clock, month, year, dates), nil
}

func findOrCreateRun(ctx context.Context, repo *repository.Repository, month, year int, callerID string) (*model.PayrollRun, error) {
	run, err := repo.Payroll.GetRunForUpdate(ctx, month, year)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	run = &model.PayrollRun{Month: month, Year: year, Status: model.PayrollDraft}
	run.CreatedBy = &callerID
	run.UpdatedBy = &callerID
	if err := repo.Payroll.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func payrollDescription(month, year int) string {
	return fmt.Sprintf("Salary for %s %d", time.Month(month), year)
}

func slipComponents(sl *model.PayrollSlip) payroll.Components {
	return payroll.Components{
		Basic:           sl.BasicSalary,
		HRA:             sl.HRA,
		Conveyance:      sl.ConveyanceAllowance,
		Accommodation:   sl.AccommodationAllowance,
		Allowances:      sl.Allowances,
		Incentives:      sl.Incentives,
		AdvanceSalary:   sl.AdvanceSalary,
		OtherDeductions: sl.OtherDeductions,
	}
}

func toSlipResponse(sl *model.PayrollSlip) dto.SlipResponse {
	resp := dto.SlipResponse{
		ID:                     sl.SlipID,
		RunID:                  sl.RunID,
		UserID:                 sl.UserID,
		BasicSalary:            sl.BasicSalary,
		HRA:                    sl.HRA,
		ConveyanceAllowance:    sl.ConveyanceAllowance,
		AccommodationAllowance: sl.AccommodationAllowance,
		Allowances:             sl.Allowances,
		Incentives:             sl.Incentives,
		LOPDays:                sl.LOPDays,
		LOPDeduction:           sl.LOPDeduction,
		AdvanceSalary:          sl.AdvanceSalary,
		OtherDeductions:        sl.OtherDeductions,
		TotalWorkingDays:       sl.TotalWorkingDays,
		NetPay:                 sl.NetPay,
		Status:                 sl.Status,
	}
	if sl.User != nil {
		resp.FullName = sl.User.FullName
	}
	return resp
}

func toRunResponse(run *model.PayrollRun, slips []model.PayrollSlip) *dto.PayrollRunResponse {
	resp := &dto.PayrollRunResponse{
		ID:              run.RunID,
		Month:           run.Month,
		Year:            run.Year,
		Status:          run.Status,
		ProcessedAt:     formatTimePtr(run.ProcessedAt),
		EntryID:         run.EntryID,
		Slips:           make([]dto.SlipResponse, 0, len(slips)),
		TotalPayout:     decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	for i := range slips {
		sl := &slips[i]
		resp.Slips = append(resp.Slips, toSlipResponse(sl))
		resp.TotalPayout = resp.TotalPayout.Add(sl.NetPay)
		resp.TotalDeductions = resp.TotalDeductions.
			Add(sl.LOPDeduction).
			Add(sl.AdvanceSalary).
			Add(sl.OtherDeductions)
	}
	return resp
}
