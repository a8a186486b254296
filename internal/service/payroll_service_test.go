package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	pkgerrors "purple-port/backend/pkg/errors"
)

// ── 测试辅助 ──

// day 解析本地日期为存储用的 UTC 时刻
func day(s string) time.Time {
	d, err := testClock.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setupTestPayrollService() (PayrollService, *mockRepos) {
	repos := newMockRepos()
	p := repos.addStaff("user-1", "PP001")
	// 标准薪资 30000，日薪 1000
	p.BaseSalary = dec("20000")
	p.HRA = dec("8000")
	p.ConveyanceAllowance = dec("1000")
	p.AccommodationAllowance = dec("1000")
	p.Allowances = dec("500")

	svc := NewPayrollService(testConfig(), repos.repository(), testClock, fixedNow, zap.NewNop())
	return svc, repos
}

func seedAttendance(repos *mockRepos, userID, date, status string) {
	_ = repos.attendance.Create(context.Background(), &model.AttendanceRecord{
		UserID: userID, Date: day(date), Status: status, Method: model.MethodSystem,
	})
}

// seedMarch 3 月：一天缺勤、一天半天、一天被病假覆盖的缺勤
func seedMarch(repos *mockRepos) {
	seedAttendance(repos, "user-1", "2026-03-02", "ABSENT")
	seedAttendance(repos, "user-1", "2026-03-03", "HALF_DAY")
	seedAttendance(repos, "user-1", "2026-03-04", "ABSENT")
	seedAttendance(repos, "user-1", "2026-03-05", "PRESENT")
	_ = repos.leave.Create(context.Background(), &model.LeaveRequest{
		UserID: "user-1", Type: "SICK", StartDate: day("2026-03-04"), EndDate: day("2026-03-04"), Status: model.RequestApproved,
	})
}

func saveReq(userID string) *dto.SaveSlipRequest {
	return &dto.SaveSlipRequest{
		UserID:                 userID,
		Month:                  3,
		Year:                   2026,
		BasicSalary:            dec("20000"),
		HRA:                    dec("8000"),
		ConveyanceAllowance:    dec("1000"),
		AccommodationAllowance: dec("1000"),
		Allowances:             dec("500"),
	}
}

// ── ComputeLOP ──

func TestComputeLOP(t *testing.T) {
	svc, repos := setupTestPayrollService()
	seedMarch(repos)

	lop, err := svc.ComputeLOP(context.Background(), "user-1", 3, 2026)
	if err != nil {
		t.Fatalf("ComputeLOP 应成功: %v", err)
	}
	if !lop.Equal(dec("1.5")) {
		t.Errorf("期望 LOP=1.5，实际=%s", lop)
	}
}

func TestComputeLOP_UnpaidLeaveDoesNotCover(t *testing.T) {
	svc, repos := setupTestPayrollService()
	seedAttendance(repos, "user-1", "2026-03-09", "ABSENT")
	_ = repos.leave.Create(context.Background(), &model.LeaveRequest{
		UserID: "user-1", Type: model.LeaveTypeUnpaid, StartDate: day("2026-03-09"), EndDate: day("2026-03-09"), Status: model.RequestApproved,
	})

	lop, _ := svc.ComputeLOP(context.Background(), "user-1", 3, 2026)
	if !lop.Equal(dec("1")) {
		t.Errorf("无薪假不抵扣缺勤，期望 1，实际=%s", lop)
	}
}

// ── GetSalaryDraft ──

func TestGetSalaryDraft_FromProfile(t *testing.T) {
	svc, repos := setupTestPayrollService()
	seedMarch(repos)
	_ = repos.holiday.Create(context.Background(), &model.Holiday{Name: "Founders Day", Date: day("2026-03-31")})
	_ = repos.holiday.Create(context.Background(), &model.Holiday{Name: "Sunday Fest", Date: day("2026-03-08")})

	draft, err := svc.GetSalaryDraft(context.Background(), "user-1", 3, 2026)
	if err != nil {
		t.Fatalf("GetSalaryDraft 应成功: %v", err)
	}
	if !draft.DailyWage.Equal(dec("1000")) || !draft.LOPDeduction.Equal(dec("1500")) {
		t.Errorf("日薪/扣薪不符: %s/%s", draft.DailyWage, draft.LOPDeduction)
	}
	if !draft.NetPay.Equal(dec("29000")) {
		t.Errorf("期望实发 29000，实际=%s", draft.NetPay)
	}
	// 31 天 − 5 个周日 − 1 个非周日假日
	if draft.TotalWorkingDays != 25 {
		t.Errorf("期望应出勤 25 天，实际=%d", draft.TotalWorkingDays)
	}
	if draft.SlipID != nil || draft.RunStatus != "" {
		t.Error("尚无工资单时不应带出批次信息")
	}
	if draft.FullName != "Staff PP001" {
		t.Errorf("期望带出姓名，实际=%s", draft.FullName)
	}
}

func TestGetSalaryDraft_NoProfile(t *testing.T) {
	svc, _ := setupTestPayrollService()
	_, err := svc.GetSalaryDraft(context.Background(), "ghost", 3, 2026)
	if !errors.Is(err, ErrStaffProfileAbsent) {
		t.Errorf("期望 ErrStaffProfileAbsent，实际=%v", err)
	}
}

// ── SavePayrollSlip ──

func TestSavePayrollSlip_ComputesAndUpserts(t *testing.T) {
	svc, repos := setupTestPayrollService()
	seedMarch(repos)
	ctx := context.Background()

	slip, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1")
	if err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}
	if !slip.LOPDays.Equal(dec("1.5")) || !slip.NetPay.Equal(dec("29000")) {
		t.Errorf("LOP/实发不符: %s/%s", slip.LOPDays, slip.NetPay)
	}
	if slip.TotalWorkingDays != 26 || slip.Status != model.SlipPending {
		t.Errorf("应出勤/状态不符: %d/%s", slip.TotalWorkingDays, slip.Status)
	}

	// 再次保存覆盖同一工资单，手工 LOP 优先
	req := saveReq("user-1")
	req.Incentives = dec("2000")
	req.AdvanceSalary = dec("500")
	req.LOPDays = decPtr("0")
	again, err := svc.SavePayrollSlip(ctx, req, "admin-1")
	if err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}
	if again.ID != slip.ID {
		t.Error("同一员工同一月份应覆盖已有工资单")
	}
	if !again.NetPay.Equal(dec("32000")) {
		t.Errorf("期望实发 30500+2000−500=32000，实际=%s", again.NetPay)
	}
	if len(repos.payroll.runs) != 1 || len(repos.payroll.slips) != 1 {
		t.Errorf("期望 1 个批次 1 张工资单，实际=%d/%d", len(repos.payroll.runs), len(repos.payroll.slips))
	}

	draft, _ := svc.GetSalaryDraft(ctx, "user-1", 3, 2026)
	if draft.SlipID == nil || !draft.Incentives.Equal(dec("2000")) || draft.RunStatus != model.PayrollDraft {
		t.Errorf("草稿应沿用已保存的工资单，实际=%+v", draft)
	}
	if !draft.LOPDays.Equal(dec("1.5")) {
		t.Errorf("草稿批次未锁定时 LOP 取最新计算值，实际=%s", draft.LOPDays)
	}
}

func TestSavePayrollSlip_Validation(t *testing.T) {
	svc, _ := setupTestPayrollService()

	req := saveReq("user-1")
	req.OtherDeductions = dec("-1")
	if _, err := svc.SavePayrollSlip(context.Background(), req, "admin-1"); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("负数组成应为校验错误，实际=%v", err)
	}

	if _, err := svc.SavePayrollSlip(context.Background(), saveReq("ghost"), "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际=%v", err)
	}
}

func TestSavePayrollSlip_NetPayFloorsAtZero(t *testing.T) {
	svc, _ := setupTestPayrollService()

	req := saveReq("user-1")
	req.AdvanceSalary = dec("50000")
	slip, err := svc.SavePayrollSlip(context.Background(), req, "admin-1")
	if err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}
	if !slip.NetPay.IsZero() {
		t.Errorf("实发不应为负，实际=%s", slip.NetPay)
	}
}

// ── ConfirmPayrollRun ──

func TestConfirmPayrollRun_PostsSingleEntry(t *testing.T) {
	svc, repos := setupTestPayrollService()
	seedMarch(repos)
	repos.addStaff("user-2", "PP002")
	ctx := context.Background()

	if _, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}
	req2 := saveReq("user-2")
	req2.LOPDays = decPtr("0")
	if _, err := svc.SavePayrollSlip(ctx, req2, "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}

	run, err := svc.ConfirmPayrollRun(ctx, 3, 2026, "admin-1")
	if err != nil {
		t.Fatalf("ConfirmPayrollRun 应成功: %v", err)
	}
	if run.Status != model.PayrollPaid || run.ProcessedAt == nil || run.EntryID == nil {
		t.Fatalf("批次应为 PAID 并关联凭证，实际=%+v", run)
	}
	if !run.TotalPayout.Equal(dec("59500")) || !run.TotalDeductions.Equal(dec("1500")) {
		t.Errorf("合计不符: payout=%s deductions=%s", run.TotalPayout, run.TotalDeductions)
	}
	for _, sl := range run.Slips {
		if sl.Status != model.SlipPaid {
			t.Errorf("工资单 %s 应为 PAID", sl.ID)
		}
	}

	if len(repos.journal.entries) != 1 {
		t.Fatalf("期望 1 张汇总凭证，实际=%d", len(repos.journal.entries))
	}
	entry := repos.journal.entries[*run.EntryID]
	if entry.Description != "Salary for March 2026" || !entry.Date.Equal(day("2026-03-31")) {
		t.Errorf("凭证摘要/日期不符: %s %s", entry.Description, testClock.FormatDate(entry.Date))
	}
	expense, _ := repos.ledger.GetByName(ctx, "Salary & Wages")
	payable, _ := repos.ledger.GetByName(ctx, "Salary Payable")
	if expense == nil || payable == nil {
		t.Fatal("应自动创建工资费用与应付账户")
	}
	if !expense.Balance.Equal(dec("59500")) || !payable.Balance.Equal(dec("-59500")) {
		t.Errorf("借工资费用贷应付工资：expense=%s payable=%s", expense.Balance, payable.Balance)
	}
	assertBalanced(t, repos)
}

func TestConfirmPayrollRun_LocksRun(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	if _, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}
	if _, err := svc.ConfirmPayrollRun(ctx, 3, 2026, "admin-1"); err != nil {
		t.Fatalf("ConfirmPayrollRun 应成功: %v", err)
	}

	_, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1")
	if !errors.Is(err, ErrPayrollLocked) || pkgerrors.Message(err) != "Payroll is locked." {
		t.Errorf("已发放批次不可修改，实际=%v", err)
	}
	if _, err := svc.ConfirmPayrollRun(ctx, 3, 2026, "admin-1"); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Errorf("重复确认应冲突，实际=%v", err)
	}
	for id := range repos.payroll.slips {
		if err := svc.RejectSlip(ctx, id); !errors.Is(err, ErrPayrollLocked) {
			t.Errorf("已发放工资单不可驳回，实际=%v", err)
		}
	}
	if len(repos.journal.entries) != 1 {
		t.Errorf("重复确认不应重复记账，实际=%d", len(repos.journal.entries))
	}
}

func TestConfirmPayrollRun_ZeroTotalPostsNothing(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	if _, err := svc.SavePayrollSlip(ctx, &dto.SaveSlipRequest{UserID: "user-1", Month: 3, Year: 2026}, "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}

	run, err := svc.ConfirmPayrollRun(ctx, 3, 2026, "admin-1")
	if err != nil {
		t.Fatalf("ConfirmPayrollRun 应成功: %v", err)
	}
	if run.Status != model.PayrollPaid || run.EntryID != nil {
		t.Errorf("零发放应只锁定批次，实际=%+v", run)
	}
	if len(repos.journal.entries) != 0 {
		t.Error("零发放不应生成凭证")
	}
}

func TestConfirmPayrollRun_NotFound(t *testing.T) {
	svc, _ := setupTestPayrollService()
	_, err := svc.ConfirmPayrollRun(context.Background(), 4, 2026, "admin-1")
	if !errors.Is(err, ErrPayrollRunNotFound) {
		t.Errorf("期望 ErrPayrollRunNotFound，实际=%v", err)
	}
}

// ── RejectSlip / ListRuns ──

func TestRejectSlip_DraftRun(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	slip, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1")
	if err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}

	if err := svc.RejectSlip(ctx, slip.ID); err != nil {
		t.Fatalf("RejectSlip 应成功: %v", err)
	}
	if len(repos.payroll.slips) != 0 {
		t.Error("工资单应已删除")
	}
	if err := svc.RejectSlip(ctx, slip.ID); !errors.Is(err, ErrSlipNotFound) {
		t.Errorf("期望 ErrSlipNotFound，实际=%v", err)
	}
}

func TestListRuns(t *testing.T) {
	svc, _ := setupTestPayrollService()
	ctx := context.Background()
	if _, err := svc.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}

	runs, err := svc.ListRuns(ctx, 2026)
	if err != nil {
		t.Fatalf("ListRuns 应成功: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != model.PayrollDraft {
		t.Errorf("期望 1 个 DRAFT 批次，实际=%+v", runs)
	}
	if other, _ := svc.ListRuns(ctx, 2025); len(other) != 0 {
		t.Error("按年份过滤")
	}
}
