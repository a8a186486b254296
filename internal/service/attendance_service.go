package service

import (
	"context"
	"errors"
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

// ── 考勤模块业务错误 ──

var (
	ErrAlreadyCheckedIn   = pkgerrors.Conflict("今日已签到")
	ErrNotCheckedIn       = pkgerrors.NotFound("今日尚未签到")
	ErrAlreadyCheckedOut  = pkgerrors.Conflict("今日已签退")
	ErrRecordLocked       = pkgerrors.Locked("考勤记录已锁定（人工修改或已补签），如需修改请显式覆盖")
	ErrInvalidTimestamp   = pkgerrors.Validation("时间格式无效")
	ErrAdminUpdateEmpty   = pkgerrors.Validation("状态与签到时间至少提供一项")
	ErrCheckOutBeforeIn   = pkgerrors.Validation("签退时间不能早于签到时间")
	ErrRangeTooLong       = pkgerrors.Validation("查询区间不能超过 366 天")
	ErrRequestNotFound    = pkgerrors.NotFound("申请不存在")
	ErrRequestNotPending  = pkgerrors.Conflict("仅待审批的申请可以处理")
	ErrRequestNotApproved = pkgerrors.Conflict("仅已批准的补签可以撤销")
	ErrRegularisationDay  = pkgerrors.Validation("周日与法定假日无需补签")
)

// RecomputeRange 重算命令：[From, To]（本地日期键，闭区间）内未锁定的记录按当前班次重新判定
type RecomputeRange struct {
	UserID string
	From   time.Time
	To     time.Time
}

// AttendanceService 考勤业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, userID string) (*dto.AttendanceResponse, error)
	CheckOut(ctx context.Context, userID string) (*dto.AttendanceResponse, error)
	ListRecords(ctx context.Context, userID, start, end string) ([]dto.AttendanceResponse, error)
	AdminUpdate(ctx context.Context, req *dto.AdminUpdateRequest, callerID string) (*dto.AttendanceResponse, error)
	RecomputeRange(ctx context.Context, cmd RecomputeRange) (int, error)

	RequestRegularisation(ctx context.Context, userID string, req *dto.CreateRegularisationRequest) (*dto.RegularisationResponse, error)
	DecideRegularisation(ctx context.Context, id, approverID string, req *dto.DecideRequest) (*dto.RegularisationResponse, error)
	RevertRegularisation(ctx context.Context, id string) (*dto.RegularisationResponse, error)
	ListRegularisations(ctx context.Context, userID, status string) ([]dto.RegularisationResponse, error)

	GetMonthlyCalendar(ctx context.Context, userID string, month, year int) (*dto.CalendarResponse, error)
}

type attendanceService struct {
	cfg      *config.Config
	repo     *repository.Repository
	resolver *ShiftResolver
	engine   *attendance.Engine
	clock    attendance.Clock
	now      func() time.Time
	logger   *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(cfg *config.Config, repo *repository.Repository, resolver *ShiftResolver, now func() time.Time, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		cfg:      cfg,
		repo:     repo,
		resolver: resolver,
		engine:   attendance.NewEngine(resolver.Clock()),
		clock:    resolver.Clock(),
		now:      now,
		logger:   logger,
	}
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, userID string) (*dto.AttendanceResponse, error) {
	now := s.now().UTC()
	key := s.clock.LocalMidnight(now)

	var rec *model.AttendanceRecord
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if _, err := txRepo.Attendance.GetByUserAndDate(ctx, userID, key); err == nil {
			return ErrAlreadyCheckedIn
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		shift := s.resolver.Resolve(ctx, userID, key)
		res, err := s.engine.ComputeStatus(shift, now, nil, false)
		if err != nil {
			return err
		}

		rec = &model.AttendanceRecord{
			UserID:  userID,
			Date:    key,
			CheckIn: &now,
			Method:  model.MethodWeb,
		}
		applyResult(rec, shift, res)
		rec.CreatedBy = &userID
		return txRepo.Attendance.Create(ctx, rec)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("签到失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return toAttendanceResponse(s.clock, rec), nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, userID string) (*dto.AttendanceResponse, error) {
	now := s.now().UTC()
	today := s.clock.LocalMidnight(now)
	p := loadPolicy(ctx, s.repo, s.cfg.Org, s.logger)

	var rec *model.AttendanceRecord
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		rec, err = txRepo.Attendance.GetByUserAndDate(ctx, userID, today)
		if errors.Is(err, gorm.ErrRecordNotFound) && s.clock.Hour(now) < p.OvernightCutoffHour {
			// 跨夜班次：凌晨签退归属前一天未签退的记录
			prev, perr := txRepo.Attendance.GetByUserAndDate(ctx, userID, today.AddDate(0, 0, -1))
			if perr == nil && prev.CheckOut == nil {
				rec, err = prev, nil
			}
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotCheckedIn
			}
			return err
		}
		if rec.CheckOut != nil {
			return ErrAlreadyCheckedOut
		}
		if rec.Locked() {
			return ErrRecordLocked
		}
		if rec.CheckIn == nil {
			return ErrNotCheckedIn
		}

		rec.CheckOut = &now
		shift := s.resolver.Resolve(ctx, userID, rec.Date)
		res, err := s.engine.ComputeStatus(shift, *rec.CheckIn, rec.CheckOut, rec.Date.Before(today))
		if err != nil {
			return err
		}
		applyResult(rec, shift, res)
		rec.UpdatedBy = &userID
		return txRepo.Attendance.Update(ctx, rec)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("签退失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}
	return toAttendanceResponse(s.clock, rec), nil
}

// ────────────────────── ListRecords ──────────────────────

func (s *attendanceService) ListRecords(ctx context.Context, userID, start, end string) ([]dto.AttendanceResponse, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.ListByUserRange(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceResponse, 0, len(records))
	for i := range records {
		result = append(result, *toAttendanceResponse(s.clock, &records[i]))
	}
	return result, nil
}

// ────────────────────── AdminUpdate ──────────────────────

func (s *attendanceService) AdminUpdate(ctx context.Context, req *dto.AdminUpdateRequest, callerID string) (*dto.AttendanceResponse, error) {
	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if req.Status == nil && req.CheckIn == nil {
		return nil, ErrAdminUpdateEmpty
	}

	checkIn, err := s.parseOptionalTimestamp(req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := s.parseOptionalTimestamp(req.CheckOut)
	if err != nil {
		return nil, err
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return nil, ErrCheckOutBeforeIn
	}

	if _, err := s.repo.User.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	today := s.clock.LocalMidnight(s.now())

	var rec *model.AttendanceRecord
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		existing, err := txRepo.Attendance.GetByUserAndDate(ctx, req.UserID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil && existing.Locked() && !req.Override {
			return ErrRecordLocked
		}

		rec = existing
		if rec == nil {
			rec = &model.AttendanceRecord{UserID: req.UserID, Date: date}
			rec.CreatedBy = &callerID
		}
		if checkIn != nil {
			rec.CheckIn = checkIn
		}
		if checkOut != nil {
			rec.CheckOut = checkOut
		}

		shift := s.resolver.Resolve(ctx, req.UserID, date)
		if req.Status != nil {
			rec.Status = *req.Status
			rec.Criteria = ""
			rec.ShiftSnapshot = shift.Snapshot()
			rec.GraceTimeApplied = shift.GraceMinutes
			if rec.CheckIn != nil {
				rec.WorkHours = attendance.WorkHours(*rec.CheckIn, rec.CheckOut)
			}
		} else {
			if rec.CheckIn == nil {
				return ErrAdminUpdateEmpty
			}
			res, err := s.engine.ComputeStatus(shift, *rec.CheckIn, rec.CheckOut, date.Before(today))
			if err != nil {
				return err
			}
			applyResult(rec, shift, res)
		}
		rec.Method = model.MethodManualAdmin
		rec.Notes = req.Notes
		rec.UpdatedBy = &callerID

		if existing == nil {
			return txRepo.Attendance.Create(ctx, rec)
		}
		return txRepo.Attendance.Update(ctx, rec)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("管理员修改考勤失败", zap.String("user_id", req.UserID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("管理员修改考勤",
		zap.String("user_id", req.UserID),
		zap.String("date", req.Date),
		zap.String("status", rec.Status),
		zap.Bool("override", req.Override),
		zap.String("caller_id", callerID))
	return toAttendanceResponse(s.clock, rec), nil
}

// ────────────────────── RecomputeRange ──────────────────────

func (s *attendanceService) RecomputeRange(ctx context.Context, cmd RecomputeRange) (int, error) {
	from := s.clock.LocalMidnight(cmd.From)
	to := s.clock.LocalMidnight(cmd.To)
	if to.Before(from) {
		return 0, ErrInvalidDateRange
	}

	records, err := s.repo.Attendance.ListByUserRange(ctx, cmd.UserID, from, to)
	if err != nil {
		s.logger.Error("查询待重算考勤失败", zap.String("user_id", cmd.UserID), zap.Error(err))
		return 0, err
	}

	updated := 0
	for i := range records {
		rec := &records[i]
		if rec.Locked() || rec.CheckIn == nil {
			continue
		}

		shift := s.resolver.Resolve(ctx, cmd.UserID, rec.Date)
		res, err := s.engine.ComputeStatus(shift, *rec.CheckIn, rec.CheckOut, true)
		if err != nil {
			s.logger.Warn("重算考勤失败，跳过", zap.String("attendance_id", rec.AttendanceID), zap.Error(err))
			continue
		}

		before := *rec
		applyResult(rec, shift, res)
		if sameOutcome(&before, rec) {
			continue
		}
		if err := s.repo.Attendance.Update(ctx, rec); err != nil {
			s.logger.Error("保存重算结果失败", zap.String("attendance_id", rec.AttendanceID), zap.Error(err))
			return updated, err
		}
		updated++
	}

	s.logger.Info("考勤重算完成",
		zap.String("user_id", cmd.UserID),
		zap.String("from", s.clock.FormatDate(from)),
		zap.String("to", s.clock.FormatDate(to)),
		zap.Int("updated", updated))
	return updated, nil
}

// ── 内部辅助方法 ──

// parseRange 解析闭区间日期，最长一年
func (s *attendanceService) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := s.clock.ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	to, err := s.clock.ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	if to.Sub(from) > 366*24*time.Hour {
		return time.Time{}, time.Time{}, ErrRangeTooLong
	}
	return from, to, nil
}

func (s *attendanceService) parseOptionalTimestamp(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := s.clock.ParseTimestamp(*v)
	if err != nil {
		return nil, ErrInvalidTimestamp
	}
	return &t, nil
}

// applyResult 将判定结果与班次快照写入记录，默认班次不记录 shift_id
func applyResult(rec *model.AttendanceRecord, shift attendance.Shift, res attendance.Result) {
	rec.Status = string(res.Status)
	rec.WorkHours = res.WorkHours
	rec.Criteria = res.Criteria
	rec.ShiftSnapshot = shift.Snapshot()
	rec.GraceTimeApplied = shift.GraceMinutes
	if shift.IsDefault || shift.ID == "" {
		rec.ShiftID = nil
	} else {
		id := shift.ID
		rec.ShiftID = &id
	}
}

func sameOutcome(a, b *model.AttendanceRecord) bool {
	sameShift := (a.ShiftID == nil && b.ShiftID == nil) ||
		(a.ShiftID != nil && b.ShiftID != nil && *a.ShiftID == *b.ShiftID)
	return sameShift &&
		a.Status == b.Status &&
		a.WorkHours == b.WorkHours &&
		a.Criteria == b.Criteria &&
		a.ShiftSnapshot == b.ShiftSnapshot &&
		a.GraceTimeApplied == b.GraceTimeApplied
}

func isDomainError(err error) bool {
	var de *pkgerrors.DomainError
	return errors.As(err, &de)
}

func toAttendanceResponse(clock attendance.Clock, rec *model.AttendanceRecord) *dto.AttendanceResponse {
	return &dto.AttendanceResponse{
		ID:               rec.AttendanceID,
		UserID:           rec.UserID,
		Date:             clock.FormatDate(rec.Date),
		CheckIn:          formatTimePtr(rec.CheckIn),
		CheckOut:         formatTimePtr(rec.CheckOut),
		WorkHours:        rec.WorkHours,
		Status:           rec.Status,
		Method:           rec.Method,
		ShiftID:          rec.ShiftID,
		ShiftSnapshot:    rec.ShiftSnapshot,
		Criteria:         rec.Criteria,
		GraceTimeApplied: rec.GraceTimeApplied,
		Notes:            rec.Notes,
		Locked:           rec.Locked(),
	}
}
