package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

var (
	ErrLeaveNotFound   = pkgerrors.NotFound("请假申请不存在")
	ErrLeaveOverlap    = pkgerrors.Conflict("请假日期与已有申请重叠")
	ErrLeaveTooLong    = pkgerrors.Validation("单次请假不能超过 180 天")
	ErrHolidayNotFound = pkgerrors.NotFound("假日不存在")
	ErrHolidayExists   = pkgerrors.Conflict("该日期已设置假日")
)

const maxLeaveDays = 180

// LeaveService 请假与假日接口
type LeaveService interface {
	Apply(ctx context.Context, userID string, req *dto.ApplyLeaveRequest) (*dto.LeaveResponse, error)
	Decide(ctx context.Context, id, approverID string, req *dto.DecideRequest) (*dto.LeaveResponse, error)
	List(ctx context.Context, q *dto.LeaveListQuery) ([]dto.LeaveResponse, error)

	ListHolidays(ctx context.Context, year int) ([]dto.HolidayResponse, error)
	CreateHoliday(ctx context.Context, req *dto.CreateHolidayRequest, callerID string) (*dto.HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string) error
}

type leaveService struct {
	repo   *repository.Repository
	clock  attendance.Clock
	logger *zap.Logger
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, clock attendance.Clock, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Apply ──────────────────────

func (s *leaveService) Apply(ctx context.Context, userID string, req *dto.ApplyLeaveRequest) (*dto.LeaveResponse, error) {
	start, err := s.clock.ParseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := s.clock.ParseDate(req.EndDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}
	if s.clock.DaysBetween(start, end) >= maxLeaveDays {
		return nil, ErrLeaveTooLong
	}

	existing, err := s.repo.Leave.FindOverlapping(ctx, userID, start, end)
	if err != nil {
		s.logger.Error("查询重叠请假失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrLeaveOverlap
	}

	leave := &model.LeaveRequest{
		UserID:    userID,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Status:    model.RequestPending,
	}
	leave.CreatedBy = &userID

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.toLeaveResponse(leave), nil
}

// ────────────────────── Decide ──────────────────────

func (s *leaveService) Decide(ctx context.Context, id, approverID string, req *dto.DecideRequest) (*dto.LeaveResponse, error) {
	var leave *model.LeaveRequest
	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		leave, err = txRepo.Leave.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLeaveNotFound
			}
			return err
		}
		if leave.Status != model.RequestPending {
			return ErrRequestNotPending
		}

		leave.Status = req.Status
		leave.ApproverID = &approverID
		leave.UpdatedBy = &approverID
		if req.Status == model.RequestRejected {
			leave.RejectionReason = req.RejectionReason
		}
		if err := txRepo.Leave.Update(ctx, leave); err != nil {
			return err
		}

		if req.Status == model.RequestApproved {
			return s.markLeaveDays(ctx, txRepo, leave, approverID)
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("审批请假失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("请假已审批",
		zap.String("id", id),
		zap.String("status", req.Status),
		zap.String("approver_id", approverID))
	return s.toLeaveResponse(leave), nil
}

// ────────────────────── List ──────────────────────

func (s *leaveService) List(ctx context.Context, q *dto.LeaveListQuery) ([]dto.LeaveResponse, error) {
	list, err := s.repo.Leave.List(ctx, q.UserID, q.Status)
	if err != nil {
		s.logger.Error("查询请假列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.LeaveResponse, 0, len(list))
	for i := range list {
		result = append(result, *s.toLeaveResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── 假日 ──────────────────────

func (s *leaveService) ListHolidays(ctx context.Context, year int) ([]dto.HolidayResponse, error) {
	from, _ := s.clock.MonthRange(1, year)
	_, to := s.clock.MonthRange(12, year)
	list, err := s.repo.Holiday.ListInRange(ctx, from, to)
	if err != nil {
		s.logger.Error("查询假日失败", zap.Int("year", year), zap.Error(err))
		return nil, err
	}
	result := make([]dto.HolidayResponse, 0, len(list))
	for i := range list {
		result = append(result, s.toHolidayResponse(&list[i]))
	}
	return result, nil
}

func (s *leaveService) CreateHoliday(ctx context.Context, req *dto.CreateHolidayRequest, callerID string) (*dto.HolidayResponse, error) {
	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := s.repo.Holiday.GetByDate(ctx, date); err == nil {
		return nil, ErrHolidayExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询假日失败", zap.Error(err))
		return nil, err
	}

	h := &model.Holiday{Name: req.Name, Date: date}
	h.CreatedBy = &callerID
	if err := s.repo.Holiday.Create(ctx, h); err != nil {
		s.logger.Error("创建假日失败", zap.String("date", req.Date), zap.Error(err))
		return nil, err
	}
	resp := s.toHolidayResponse(h)
	return &resp, nil
}

func (s *leaveService) DeleteHoliday(ctx context.Context, id string) error {
	if _, err := s.repo.Holiday.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		s.logger.Error("查询假日失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.repo.Holiday.Delete(ctx, id); err != nil {
		s.logger.Error("删除假日失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// markLeaveDays 将请假区间内每天的考勤记为 LEAVE，已锁定记录保持不变
func (s *leaveService) markLeaveDays(ctx context.Context, repo *repository.Repository, leave *model.LeaveRequest, approverID string) error {
	note := "Leave: " + leave.Type
	for day := leave.StartDate; !day.After(leave.EndDate); day = day.AddDate(0, 0, 1) {
		rec, err := repo.Attendance.GetByUserAndDate(ctx, leave.UserID, day)
		switch {
		case err == nil:
			if rec.Locked() {
				continue
			}
			rec.Status = string(attendance.StatusLeave)
			rec.Notes = note
			rec.UpdatedBy = &approverID
			if err := repo.Attendance.Update(ctx, rec); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rec = &model.AttendanceRecord{
				UserID: leave.UserID,
				Date:   day,
				Status: string(attendance.StatusLeave),
				Method: model.MethodSystem,
				Notes:  note,
			}
			rec.CreatedBy = &approverID
			if err := repo.Attendance.Create(ctx, rec); err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

func (s *leaveService) toLeaveResponse(l *model.LeaveRequest) *dto.LeaveResponse {
	resp := &dto.LeaveResponse{
		ID:              l.LeaveID,
		UserID:          l.UserID,
		Type:            l.Type,
		StartDate:       s.clock.FormatDate(l.StartDate),
		EndDate:         s.clock.FormatDate(l.EndDate),
		Reason:          l.Reason,
		Status:          l.Status,
		ApproverID:      l.ApproverID,
		RejectionReason: l.RejectionReason,
	}
	if l.User != nil {
		resp.UserName = l.User.FullName
	}
	return resp
}

func (s *leaveService) toHolidayResponse(h *model.Holiday) dto.HolidayResponse {
	return dto.HolidayResponse{ID: h.HolidayID, Name: h.Name, Date: s.clock.FormatDate(h.Date)}
}
