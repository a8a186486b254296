package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound      = pkgerrors.NotFound("班次不存在")
	ErrShiftInUse         = pkgerrors.Conflict("Cannot delete shift: It is assigned to staff.")
	ErrAssignmentNotFound = pkgerrors.NotFound("班次分配不存在")
	ErrStaffNotFound      = pkgerrors.NotFound("员工档案不存在")
	ErrInvalidDateRange   = pkgerrors.Validation("结束日期不能早于开始日期")
	ErrInvalidDate        = pkgerrors.Validation("日期格式应为 YYYY-MM-DD")
)

// ────────────────────── ShiftResolver ──────────────────────

// ShiftResolver 解析员工某日生效的班次
type ShiftResolver struct {
	repo   *repository.Repository
	org    config.OrgConfig
	clock  attendance.Clock
	logger *zap.Logger
}

// NewShiftResolver 创建班次解析器
func NewShiftResolver(repo *repository.Repository, org config.OrgConfig, clock attendance.Clock, logger *zap.Logger) *ShiftResolver {
	return &ShiftResolver{repo: repo, org: org, clock: clock, logger: logger}
}

// Clock 组织时钟
func (r *ShiftResolver) Clock() attendance.Clock {
	return r.clock
}

// Resolve 返回 date 当日生效的班次。
// 无档案、无分配或查询失败时回退到默认班次；分配引用的班次已被删除时停用该分配后回退。
func (r *ShiftResolver) Resolve(ctx context.Context, userID string, date time.Time) attendance.Shift {
	key := r.clock.LocalMidnight(date)

	profile, err := r.repo.StaffProfile.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("查询员工档案失败，使用默认班次", zap.String("user_id", userID), zap.Error(err))
		}
		return r.Default(ctx)
	}

	assignment, err := r.repo.ShiftAssignment.FindActiveForDate(ctx, profile.StaffProfileID, key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("查询班次分配失败，使用默认班次", zap.String("user_id", userID), zap.Error(err))
		}
		return r.Default(ctx)
	}

	shift, err := r.repo.Shift.GetByID(ctx, assignment.ShiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("班次分配引用的班次不存在，停用该分配",
				zap.String("assignment_id", assignment.AssignmentID),
				zap.String("shift_id", assignment.ShiftID))
			if derr := r.repo.ShiftAssignment.Deactivate(ctx, assignment.AssignmentID); derr != nil {
				r.logger.Error("停用孤立班次分配失败", zap.String("assignment_id", assignment.AssignmentID), zap.Error(derr))
			}
		} else {
			r.logger.Warn("查询班次失败，使用默认班次", zap.String("shift_id", assignment.ShiftID), zap.Error(err))
		}
		return r.Default(ctx)
	}

	grace := shift.DefaultGraceMinutes
	if assignment.GraceOverride != nil {
		grace = *assignment.GraceOverride
	}
	return attendance.Shift{
		ID:           shift.ShiftID,
		Name:         shift.Name,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		GraceMinutes: grace,
	}
}

// Default 默认班次
func (r *ShiftResolver) Default(ctx context.Context) attendance.Shift {
	p := loadPolicy(ctx, r.repo, r.org, r.logger)
	return attendance.Shift{
		Name:         "Default",
		StartTime:    p.DefaultShiftStart,
		EndTime:      p.DefaultShiftEnd,
		GraceMinutes: p.DefaultGraceMinutes,
		IsDefault:    true,
	}
}

// ────────────────────── ShiftService ──────────────────────

// ShiftService 班次与班次分配业务接口
type ShiftService interface {
	Create(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	List(ctx context.Context) ([]dto.ShiftResponse, error)
	Delete(ctx context.Context, id string) error

	AssignShift(ctx context.Context, req *dto.AssignShiftRequest, callerID string) (*dto.AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, id string) (int, error)
	ListAssignments(ctx context.Context, staffProfileID string) ([]dto.AssignmentResponse, error)
	ResolveShift(ctx context.Context, userID, date string) (*dto.ResolvedShiftResponse, error)
}

// Recomputer 执行考勤重算命令
type Recomputer interface {
	RecomputeRange(ctx context.Context, cmd RecomputeRange) (int, error)
}

type shiftService struct {
	repo       *repository.Repository
	resolver   *ShiftResolver
	recomputer Recomputer
	now        func() time.Time
	logger     *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, resolver *ShiftResolver, recomputer Recomputer, now func() time.Time, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, resolver: resolver, recomputer: recomputer, now: now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	shift := &model.Shift{
		Name:                req.Name,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		DefaultGraceMinutes: 15,
	}
	if req.DefaultGraceMinutes != nil {
		shift.DefaultGraceMinutes = *req.DefaultGraceMinutes
	}
	if err := validateShiftTimes(shift); err != nil {
		return nil, err
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── Update ──────────────────────

func (s *shiftService) Update(ctx context.Context, id string, req *dto.UpdateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	shift, err := s.getShift(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		shift.Name = *req.Name
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.DefaultGraceMinutes != nil {
		shift.DefaultGraceMinutes = *req.DefaultGraceMinutes
	}
	if err := validateShiftTimes(shift); err != nil {
		return nil, err
	}
	shift.UpdatedBy = &callerID

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

// ────────────────────── List ──────────────────────

func (s *shiftService) List(ctx context.Context) ([]dto.ShiftResponse, error) {
	shifts, err := s.repo.Shift.List(ctx)
	if err != nil {
		s.logger.Error("查询班次列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *shiftService) Delete(ctx context.Context, id string) error {
	if _, err := s.getShift(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.ShiftAssignment.CountByShift(ctx, id)
	if err != nil {
		s.logger.Error("统计班次分配失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrShiftInUse
	}

	if err := s.repo.Shift.Delete(ctx, id); err != nil {
		s.logger.Error("删除班次失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AssignShift ──────────────────────

func (s *shiftService) AssignShift(ctx context.Context, req *dto.AssignShiftRequest, callerID string) (*dto.AssignmentResponse, error) {
	clock := s.resolver.Clock()

	from, err := clock.ParseDate(req.FromDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	var to *time.Time
	if req.ToDate != nil && *req.ToDate != "" {
		t, err := clock.ParseDate(*req.ToDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		if t.Before(from) {
			return nil, ErrInvalidDateRange
		}
		to = &t
	}

	profile, err := s.repo.StaffProfile.GetByID(ctx, req.StaffProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		s.logger.Error("查询员工档案失败", zap.String("staff_profile_id", req.StaffProfileID), zap.Error(err))
		return nil, err
	}
	shift, err := s.getShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	assignment := &model.StaffShiftAssignment{
		StaffProfileID: profile.StaffProfileID,
		ShiftID:        shift.ShiftID,
		FromDate:       from,
		ToDate:         to,
		GraceOverride:  req.GraceOverride,
		IsActive:       true,
	}
	assignment.CreatedBy = &callerID
	assignment.UpdatedBy = &callerID

	// 锁住员工档案行后再查重叠并写入，同一员工的并发分配在此排队
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if _, err := txRepo.StaffProfile.GetForUpdate(ctx, profile.StaffProfileID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStaffNotFound
			}
			return err
		}
		overlapping, err := txRepo.ShiftAssignment.FindOverlapping(ctx, profile.StaffProfileID, from, to)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return pkgerrors.Conflict(fmt.Sprintf(
				"Shift assignment overlaps with existing assignment (Start: %s)",
				clock.FormatDate(overlapping[0].FromDate)))
		}
		return txRepo.ShiftAssignment.Create(ctx, assignment)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("创建班次分配失败", zap.String("staff_profile_id", profile.StaffProfileID), zap.Error(err))
		}
		return nil, err
	}
	assignment.Shift = shift

	resp := toAssignmentResponse(clock, assignment)
	resp.Recomputed = s.recomputeAssignment(ctx, profile.UserID, from, to)
	return resp, nil
}

// ────────────────────── DeleteAssignment ──────────────────────

func (s *shiftService) DeleteAssignment(ctx context.Context, id string) (int, error) {
	assignment, err := s.repo.ShiftAssignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAssignmentNotFound
		}
		s.logger.Error("查询班次分配失败", zap.String("id", id), zap.Error(err))
		return 0, err
	}

	if err := s.repo.ShiftAssignment.Deactivate(ctx, id); err != nil {
		s.logger.Error("停用班次分配失败", zap.String("id", id), zap.Error(err))
		return 0, err
	}

	profile, err := s.repo.StaffProfile.GetByID(ctx, assignment.StaffProfileID)
	if err != nil {
		s.logger.Warn("班次分配已停用，但查询员工档案失败，跳过重算", zap.String("id", id), zap.Error(err))
		return 0, nil
	}
	return s.recomputeAssignment(ctx, profile.UserID, assignment.FromDate, assignment.ToDate), nil
}

// ────────────────────── ListAssignments ──────────────────────

func (s *shiftService) ListAssignments(ctx context.Context, staffProfileID string) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.ShiftAssignment.ListByStaff(ctx, staffProfileID)
	if err != nil {
		s.logger.Error("查询班次分配失败", zap.String("staff_profile_id", staffProfileID), zap.Error(err))
		return nil, err
	}
	clock := s.resolver.Clock()
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAssignmentResponse(clock, &list[i]))
	}
	return result, nil
}

// ────────────────────── ResolveShift ──────────────────────

func (s *shiftService) ResolveShift(ctx context.Context, userID, date string) (*dto.ResolvedShiftResponse, error) {
	day, err := s.resolver.Clock().ParseDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	shift := s.resolver.Resolve(ctx, userID, day)
	return &dto.ResolvedShiftResponse{
		ID:           shift.ID,
		Name:         shift.Name,
		StartTime:    shift.StartTime,
		EndTime:      shift.EndTime,
		GraceMinutes: shift.GraceMinutes,
		IsDefault:    shift.IsDefault,
	}, nil
}

// ── 内部辅助方法 ──

func (s *shiftService) getShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

// recomputeAssignment 对 [from, min(to, today)] 发出重算命令，未开始的分配不重算。
// 重算失败不影响分配本身，仅记录日志。
func (s *shiftService) recomputeAssignment(ctx context.Context, userID string, from time.Time, to *time.Time) int {
	today := s.resolver.Clock().LocalMidnight(s.now())
	if from.After(today) {
		return 0
	}
	end := today
	if to != nil && to.Before(today) {
		end = *to
	}

	n, err := s.recomputer.RecomputeRange(ctx, RecomputeRange{UserID: userID, From: from, To: end})
	if err != nil {
		s.logger.Error("班次变更后重算考勤失败", zap.String("user_id", userID), zap.Error(err))
		return 0
	}
	return n
}

func validateShiftTimes(shift *model.Shift) error {
	s := attendance.Shift{StartTime: shift.StartTime, EndTime: shift.EndTime}
	w, err := s.Window()
	if err != nil {
		return ErrInvalidClock
	}
	if w.Start == w.End {
		return pkgerrors.Validation("班次开始与结束时间不能相同")
	}
	return nil
}

func toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	w, _ := attendance.Shift{StartTime: shift.StartTime, EndTime: shift.EndTime}.Window()
	return &dto.ShiftResponse{
		ID:                  shift.ShiftID,
		Name:                shift.Name,
		StartTime:           shift.StartTime,
		EndTime:             shift.EndTime,
		DefaultGraceMinutes: shift.DefaultGraceMinutes,
		Overnight:           w.Overnight(),
	}
}

func toAssignmentResponse(clock attendance.Clock, a *model.StaffShiftAssignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:             a.AssignmentID,
		StaffProfileID: a.StaffProfileID,
		ShiftID:        a.ShiftID,
		FromDate:       clock.FormatDate(a.FromDate),
		GraceOverride:  a.GraceOverride,
		IsActive:       a.IsActive,
	}
	if a.ToDate != nil {
		d := clock.FormatDate(*a.ToDate)
		resp.ToDate = &d
	}
	if a.Shift != nil {
		resp.ShiftName = a.Shift.Name
	}
	return resp
}
