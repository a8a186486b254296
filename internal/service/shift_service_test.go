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

// fakeRecomputer 记录收到的重算命令
type fakeRecomputer struct {
	calls []RecomputeRange
	n     int
	err   error
}

func (f *fakeRecomputer) RecomputeRange(_ context.Context, cmd RecomputeRange) (int, error) {
	f.calls = append(f.calls, cmd)
	return f.n, f.err
}

func setupTestShiftService(recomputer Recomputer) (ShiftService, *mockRepos) {
	repos := newMockRepos()
	repos.addStaff("user-1", "PP001")
	_ = repos.shift.Create(context.Background(), &model.Shift{ShiftID: "shift-general", Name: "General", StartTime: "09:00", EndTime: "18:00", DefaultGraceMinutes: 10})
	svc := NewShiftService(repos.repository(), newTestResolver(repos), recomputer, fixedNow, zap.NewNop())
	return svc, repos
}

// ── 班次 CRUD ──

func TestShiftCreate(t *testing.T) {
	svc, _ := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateShiftRequest{Name: "Night", StartTime: "22:00", EndTime: "06:00"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !resp.Overnight || resp.DefaultGraceMinutes != 15 {
		t.Errorf("期望跨夜且默认宽限 15，实际=%+v", resp)
	}

	cases := []struct {
		name  string
		start string
		end   string
	}{
		{"开始时间非法", "9am", "18:00"},
		{"结束时间越界", "09:00", "24:30"},
		{"起止相同", "09:00", "09:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &dto.CreateShiftRequest{Name: "Bad", StartTime: tc.start, EndTime: tc.end}, "admin-1")
			if !errors.Is(err, pkgerrors.ErrValidation) {
				t.Errorf("期望校验错误，实际=%v", err)
			}
		})
	}
}

func TestShiftUpdate(t *testing.T) {
	svc, repos := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()

	resp, err := svc.Update(ctx, "shift-general", &dto.UpdateShiftRequest{EndTime: strPtr("17:30"), DefaultGraceMinutes: intPtr(20)}, "admin-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.StartTime != "09:00" || resp.EndTime != "17:30" || resp.DefaultGraceMinutes != 20 {
		t.Errorf("部分更新不符: %+v", resp)
	}
	if repos.shift.shifts["shift-general"].EndTime != "17:30" {
		t.Error("更新应写入仓储")
	}

	if _, err := svc.Update(ctx, "shift-ghost", &dto.UpdateShiftRequest{}, "admin-1"); !errors.Is(err, ErrShiftNotFound) {
		t.Errorf("期望 ErrShiftNotFound，实际=%v", err)
	}
}

func TestShiftDelete_InUse(t *testing.T) {
	svc, _ := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()

	if _, err := svc.AssignShift(ctx, &dto.AssignShiftRequest{StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "2026-04-01"}, "admin-1"); err != nil {
		t.Fatalf("AssignShift 应成功: %v", err)
	}

	err := svc.Delete(ctx, "shift-general")
	if !errors.Is(err, ErrShiftInUse) {
		t.Fatalf("仍被分配的班次不可删除，实际=%v", err)
	}
	if pkgerrors.Message(err) != "Cannot delete shift: It is assigned to staff." {
		t.Errorf("错误信息不符: %q", pkgerrors.Message(err))
	}
}

// ── 班次分配 ──

func TestAssignShift_Overlap(t *testing.T) {
	svc, repos := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()

	if _, err := svc.AssignShift(ctx, &dto.AssignShiftRequest{
		StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "2026-03-01", ToDate: strPtr("2026-03-31"),
	}, "admin-1"); err != nil {
		t.Fatalf("AssignShift 应成功: %v", err)
	}
	if len(repos.staff.locked) != 1 || repos.staff.locked[0] != "sp-user-1" {
		t.Errorf("查重叠前应锁定员工档案，实际=%v", repos.staff.locked)
	}
	before := len(repos.assignment.assignments)

	cases := []struct {
		name    string
		from    string
		to      *string
		overlap bool
	}{
		{"区间内部", "2026-03-10", strPtr("2026-03-12"), true},
		{"长期分配覆盖", "2026-02-01", nil, true},
		{"边界同日", "2026-03-31", strPtr("2026-04-05"), true},
		{"紧邻次日", "2026-04-01", strPtr("2026-04-30"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AssignShift(ctx, &dto.AssignShiftRequest{
				StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: tc.from, ToDate: tc.to,
			}, "admin-1")
			if !tc.overlap {
				if err != nil {
					t.Errorf("不重叠的分配应成功: %v", err)
				}
				return
			}
			if !errors.Is(err, pkgerrors.ErrConflict) {
				t.Fatalf("期望冲突，实际=%v", err)
			}
			if want := "Shift assignment overlaps with existing assignment (Start: 2026-03-01)"; pkgerrors.Message(err) != want {
				t.Errorf("期望 %q，实际=%q", want, pkgerrors.Message(err))
			}
		})
	}

	// 三个冲突均未落库，仅新增紧邻次日的一条
	if got := len(repos.assignment.assignments); got != before+1 {
		t.Errorf("期望分配数=%d，实际=%d", before+1, got)
	}
}

func TestAssignShift_Validation(t *testing.T) {
	svc, _ := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.AssignShiftRequest
		want error
	}{
		{"开始日期非法", dto.AssignShiftRequest{StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "03/01/2026"}, ErrInvalidDate},
		{"结束早于开始", dto.AssignShiftRequest{StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "2026-03-10", ToDate: strPtr("2026-03-01")}, ErrInvalidDateRange},
		{"员工不存在", dto.AssignShiftRequest{StaffProfileID: "sp-ghost", ShiftID: "shift-general", FromDate: "2026-03-01"}, ErrStaffNotFound},
		{"班次不存在", dto.AssignShiftRequest{StaffProfileID: "sp-user-1", ShiftID: "shift-ghost", FromDate: "2026-03-01"}, ErrShiftNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AssignShift(ctx, &tc.req, "admin-1"); !errors.Is(err, tc.want) {
				t.Errorf("期望 %v，实际=%v", tc.want, err)
			}
		})
	}
}

func TestAssignShift_RecomputeWindow(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		from   string
		to     *string
		calls  int
		wantTo string
	}{
		{"长期分配重算到今天", "2026-03-01", nil, 1, "2026-03-10"},
		{"历史区间重算到结束日", "2026-02-01", strPtr("2026-02-28"), 1, "2026-02-28"},
		{"未来分配不重算", "2026-04-01", nil, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecomputer{n: 2}
			svc, _ := setupTestShiftService(rec)

			resp, err := svc.AssignShift(ctx, &dto.AssignShiftRequest{
				StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: tc.from, ToDate: tc.to,
			}, "admin-1")
			if err != nil {
				t.Fatalf("AssignShift 应成功: %v", err)
			}
			if len(rec.calls) != tc.calls {
				t.Fatalf("期望重算 %d 次，实际=%d", tc.calls, len(rec.calls))
			}
			if tc.calls == 0 {
				if resp.Recomputed != 0 {
					t.Errorf("未重算时 Recomputed 应为 0，实际=%d", resp.Recomputed)
				}
				return
			}
			cmd := rec.calls[0]
			if cmd.UserID != "user-1" || testClock.FormatDate(cmd.From) != tc.from || testClock.FormatDate(cmd.To) != tc.wantTo {
				t.Errorf("重算命令不符: %s %s-%s", cmd.UserID, testClock.FormatDate(cmd.From), testClock.FormatDate(cmd.To))
			}
			if resp.Recomputed != 2 {
				t.Errorf("期望 Recomputed=2，实际=%d", resp.Recomputed)
			}
		})
	}
}

func TestAssignShift_RecomputeFailureKeepsAssignment(t *testing.T) {
	rec := &fakeRecomputer{err: errors.New("db down")}
	svc, repos := setupTestShiftService(rec)

	resp, err := svc.AssignShift(context.Background(), &dto.AssignShiftRequest{
		StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "2026-03-01",
	}, "admin-1")
	if err != nil {
		t.Fatalf("重算失败不应影响分配: %v", err)
	}
	if resp.Recomputed != 0 || len(repos.assignment.assignments) != 1 {
		t.Errorf("分配应已保存且 Recomputed=0，实际=%d/%d", resp.Recomputed, len(repos.assignment.assignments))
	}
}

// 分配与删除分配都会按新班次重算历史考勤
func TestAssignShift_RecomputesAttendance(t *testing.T) {
	repos := newMockRepos()
	repos.addStaff("user-1", "PP001")
	ctx := context.Background()
	_ = repos.shift.Create(ctx, &model.Shift{ShiftID: "shift-general", Name: "General", StartTime: "09:00", EndTime: "18:00", DefaultGraceMinutes: 15})

	resolver := newTestResolver(repos)
	attSvc := NewAttendanceService(testConfig(), repos.repository(), resolver, fixedNow, zap.NewNop())
	svc := NewShiftService(repos.repository(), resolver, attSvc, fixedNow, zap.NewNop())

	in, out := localAt("2026-03-02", "09:20"), localAt("2026-03-02", "18:30")
	_ = repos.attendance.Create(ctx, &model.AttendanceRecord{
		UserID: "user-1", Date: day("2026-03-02"), CheckIn: &in, CheckOut: &out, Status: "HALF_DAY", Method: model.MethodWeb,
		Criteria: "GRACE_TIME", ShiftSnapshot: "09:00-18:00", GraceTimeApplied: 15, WorkHours: 9.17,
	})
	lockedIn := localAt("2026-03-03", "09:20")
	_ = repos.attendance.Create(ctx, &model.AttendanceRecord{
		UserID: "user-1", Date: day("2026-03-03"), CheckIn: &lockedIn, Status: "ABSENT", Method: model.MethodManualAdmin,
	})

	resp, err := svc.AssignShift(ctx, &dto.AssignShiftRequest{
		StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: "2026-03-01", GraceOverride: intPtr(30),
	}, "admin-1")
	if err != nil {
		t.Fatalf("AssignShift 应成功: %v", err)
	}
	if resp.Recomputed != 1 {
		t.Errorf("期望重算 1 条，实际=%d", resp.Recomputed)
	}
	got := repos.attendance.get("user-1", day("2026-03-02"))
	if got.Status != "PRESENT" || got.GraceTimeApplied != 30 || got.ShiftID == nil || *got.ShiftID != "shift-general" {
		t.Errorf("宽限 30 分钟后应为 PRESENT，实际=%s grace=%d shift=%v", got.Status, got.GraceTimeApplied, got.ShiftID)
	}
	if locked := repos.attendance.get("user-1", day("2026-03-03")); locked.Status != "ABSENT" {
		t.Errorf("锁定记录不应被重算，实际=%s", locked.Status)
	}

	n, err := svc.DeleteAssignment(ctx, resp.ID)
	if err != nil {
		t.Fatalf("DeleteAssignment 应成功: %v", err)
	}
	if n != 1 {
		t.Errorf("删除分配后应重算 1 条，实际=%d", n)
	}
	got = repos.attendance.get("user-1", day("2026-03-02"))
	if got.Status != "HALF_DAY" || got.ShiftID != nil {
		t.Errorf("回退默认班次后应为 HALF_DAY 且无 shift_id，实际=%s %v", got.Status, got.ShiftID)
	}
}

func TestDeleteAssignment_NotFound(t *testing.T) {
	svc, _ := setupTestShiftService(&fakeRecomputer{})
	if _, err := svc.DeleteAssignment(context.Background(), "asg-404"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Errorf("期望 ErrAssignmentNotFound，实际=%v", err)
	}
}

// ── ShiftResolver ──

func TestShiftResolver(t *testing.T) {
	ctx := context.Background()
	march10 := day("2026-03-10")

	t.Run("无档案回退默认班次", func(t *testing.T) {
		repos := newMockRepos()
		shift := newTestResolver(repos).Resolve(ctx, "user-x", march10)
		if !shift.IsDefault || shift.StartTime != "09:00" || shift.EndTime != "18:00" || shift.GraceMinutes != 15 {
			t.Errorf("期望默认班次 09:00-18:00/15，实际=%+v", shift)
		}
	})

	t.Run("系统配置覆盖默认班次", func(t *testing.T) {
		repos := newMockRepos()
		repos.systemConfig.cfg = &model.SystemConfig{Singleton: true, DefaultShiftStart: "10:00", DefaultShiftEnd: "19:00", DefaultGraceMinutes: 5, OvernightCutoffHour: 7, RegularisationMonthCap: 3}
		shift := newTestResolver(repos).Resolve(ctx, "user-x", march10)
		if shift.StartTime != "10:00" || shift.GraceMinutes != 5 {
			t.Errorf("期望 10:00/5，实际=%+v", shift)
		}
	})

	t.Run("分配的宽限覆盖班次默认值", func(t *testing.T) {
		repos := newMockRepos()
		repos.addStaff("user-1", "PP001")
		_ = repos.shift.Create(ctx, &model.Shift{ShiftID: "shift-late", Name: "Late", StartTime: "14:00", EndTime: "23:00", DefaultGraceMinutes: 10})
		_ = repos.assignment.Create(ctx, &model.StaffShiftAssignment{
			StaffProfileID: "sp-user-1", ShiftID: "shift-late", FromDate: day("2026-03-01"), GraceOverride: intPtr(25), IsActive: true,
		})
		shift := newTestResolver(repos).Resolve(ctx, "user-1", march10)
		if shift.IsDefault || shift.ID != "shift-late" || shift.GraceMinutes != 25 {
			t.Errorf("期望 shift-late/25，实际=%+v", shift)
		}

		before := newTestResolver(repos).Resolve(ctx, "user-1", day("2026-02-28"))
		if !before.IsDefault {
			t.Error("分配开始前应使用默认班次")
		}
	})

	t.Run("班次已删除时停用孤立分配", func(t *testing.T) {
		repos := newMockRepos()
		repos.addStaff("user-1", "PP001")
		_ = repos.assignment.Create(ctx, &model.StaffShiftAssignment{
			StaffProfileID: "sp-user-1", ShiftID: "shift-ghost", FromDate: day("2026-03-01"), IsActive: true,
		})
		shift := newTestResolver(repos).Resolve(ctx, "user-1", march10)
		if !shift.IsDefault {
			t.Errorf("期望回退默认班次，实际=%+v", shift)
		}
		if repos.assignment.assignments["asg-1"].IsActive {
			t.Error("孤立分配应被停用")
		}
	})
}

func TestResolveShift(t *testing.T) {
	svc, repos := setupTestShiftService(&fakeRecomputer{})
	ctx := context.Background()
	_ = repos.assignment.Create(ctx, &model.StaffShiftAssignment{
		StaffProfileID: "sp-user-1", ShiftID: "shift-general", FromDate: day("2026-03-01"), ToDate: timePtr(day("2026-03-31")), IsActive: true,
	})

	resp, err := svc.ResolveShift(ctx, "user-1", "2026-03-15")
	if err != nil {
		t.Fatalf("ResolveShift 应成功: %v", err)
	}
	if resp.ID != "shift-general" || resp.GraceMinutes != 10 || resp.IsDefault {
		t.Errorf("期望 shift-general/10，实际=%+v", resp)
	}

	resp, _ = svc.ResolveShift(ctx, "user-1", "2026-04-01")
	if !resp.IsDefault || resp.Name != "Default" {
		t.Errorf("分配结束后应回退默认班次，实际=%+v", resp)
	}

	if _, err := svc.ResolveShift(ctx, "user-1", "tomorrow"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际=%v", err)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
