package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
)

// 超出每月补签次数的申请仍然入库，原因前加此前缀供审批人识别
const limitExceededPrefix = "[LIMIT EXCEEDED] "

// ────────────────────── RequestRegularisation ──────────────────────

func (s *attendanceService) RequestRegularisation(ctx context.Context, userID string, req *dto.CreateRegularisationRequest) (*dto.RegularisationResponse, error) {
	date, err := s.clock.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if s.clock.Local(date).Weekday() == time.Sunday {
		return nil, ErrRegularisationDay
	}
	if _, err := s.repo.Holiday.GetByDate(ctx, date); err == nil {
		return nil, ErrRegularisationDay
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询假日失败", zap.Error(err))
		return nil, err
	}

	p := loadPolicy(ctx, s.repo, s.cfg.Org, s.logger)
	local := s.clock.Local(date)
	monthStart, nextMonth := s.clock.MonthRange(int(local.Month()), local.Year())
	count, err := s.repo.Regularisation.CountByUserInRange(ctx, userID, monthStart, nextMonth)
	if err != nil {
		s.logger.Error("统计补签次数失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	reg := &model.RegularisationRequest{
		UserID: userID,
		Date:   date,
		Type:   req.Type,
		Reason: req.Reason,
		Status: model.RequestPending,
	}
	if int(count) >= p.RegularisationMonthCap {
		reg.ExceedsLimit = true
		reg.Reason = limitExceededPrefix + req.Reason
	}
	reg.CreatedBy = &userID

	if err := s.repo.Regularisation.Create(ctx, reg); err != nil {
		s.logger.Error("创建补签申请失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toRegularisationResponse(s.clock, reg), nil
}

// ────────────────────── DecideRegularisation ──────────────────────

func (s *attendanceService) DecideRegularisation(ctx context.Context, id, approverID string, req *dto.DecideRequest) (*dto.RegularisationResponse, error) {
	reg, err := s.getRegularisation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RequestPending {
		return nil, ErrRequestNotPending
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		reg.Status = req.Status
		reg.ApproverID = &approverID
		reg.UpdatedBy = &approverID
		if err := txRepo.Regularisation.Update(ctx, reg); err != nil {
			return err
		}
		if reg.Status != model.RequestApproved {
			return nil
		}
		return s.applyRegularisation(ctx, txRepo, reg, approverID)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("审批补签失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return toRegularisationResponse(s.clock, reg), nil
}

// ────────────────────── RevertRegularisation ──────────────────────

func (s *attendanceService) RevertRegularisation(ctx context.Context, id string) (*dto.RegularisationResponse, error) {
	reg, err := s.getRegularisation(ctx, id)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RequestApproved {
		return nil, ErrRequestNotApproved
	}

	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		reg.Status = model.RequestPending
		reg.ApproverID = nil
		if err := txRepo.Regularisation.Update(ctx, reg); err != nil {
			return err
		}

		rec, err := txRepo.Attendance.GetByUserAndDate(ctx, reg.UserID, reg.Date)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Method != model.MethodRegularisation {
			return nil
		}
		return txRepo.Attendance.Delete(ctx, rec.AttendanceID)
	})
	if err != nil {
		s.logger.Error("撤销补签失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toRegularisationResponse(s.clock, reg), nil
}

// ────────────────────── ListRegularisations ──────────────────────

func (s *attendanceService) ListRegularisations(ctx context.Context, userID, status string) ([]dto.RegularisationResponse, error) {
	list, err := s.repo.Regularisation.List(ctx, userID, status)
	if err != nil {
		s.logger.Error("查询补签列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.RegularisationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toRegularisationResponse(s.clock, &list[i]))
	}
	return result, nil
}

// ────────────────────── GetMonthlyCalendar ──────────────────────

// 月历中无记录日期的状态
const (
	calendarHoliday = "HOLIDAY"
	calendarWeekOff = "WEEKOFF"
)

func (s *attendanceService) GetMonthlyCalendar(ctx context.Context, userID string, month, year int) (*dto.CalendarResponse, error) {
	start, next := s.clock.MonthRange(month, year)
	last := next.AddDate(0, 0, -1)
	today := s.clock.LocalMidnight(s.now())

	records, err := s.repo.Attendance.ListByUserRange(ctx, userID, start, last)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	holidays, err := s.repo.Holiday.ListInRange(ctx, start, next)
	if err != nil {
		s.logger.Error("查询假日失败", zap.Error(err))
		return nil, err
	}
	leaves, err := s.repo.Leave.ListApprovedInRange(ctx, userID, start, last)
	if err != nil {
		s.logger.Error("查询请假记录失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	byDate := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byDate[s.clock.FormatDate(records[i].Date)] = &records[i]
	}
	holidayNames := make(map[string]string, len(holidays))
	for _, h := range holidays {
		holidayNames[s.clock.FormatDate(h.Date)] = h.Name
	}

	resp := &dto.CalendarResponse{UserID: userID, Month: month, Year: year}
	for d := start; d.Before(next); d = d.AddDate(0, 0, 1) {
		key := s.clock.FormatDate(d)
		day := dto.CalendarDay{Date: key}
		resp.Stats.TotalDays++

		sunday := s.clock.Local(d).Weekday() == time.Sunday
		holidayName, isHoliday := holidayNames[key]
		if isHoliday {
			resp.Stats.Holidays++
		}
		if !sunday && !isHoliday {
			resp.Stats.WorkingDays++
		}

		switch rec, ok := byDate[key]; {
		case ok:
			day.Status = rec.Status
			day.CheckIn = formatTimePtr(rec.CheckIn)
			day.CheckOut = formatTimePtr(rec.CheckOut)
			day.WorkHours = rec.WorkHours
			switch attendance.Status(rec.Status) {
			case attendance.StatusPresent, attendance.StatusHalfDay, attendance.StatusRegularized:
				resp.Stats.Present++
			case attendance.StatusLeave:
				resp.Stats.Leaves++
			}
		case isHoliday:
			day.Status = calendarHoliday
			day.Label = holidayName
		case leaveOn(leaves, d) != nil:
			day.Status = string(attendance.StatusLeave)
			day.Label = leaveOn(leaves, d).Type
			resp.Stats.Leaves++
		case sunday:
			day.Status = calendarWeekOff
		case d.Before(today):
			day.Status = string(attendance.StatusAbsent)
		}
		resp.Days = append(resp.Days, day)
	}
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *attendanceService) getRegularisation(ctx context.Context, id string) (*model.RegularisationRequest, error) {
	reg, err := s.repo.Regularisation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询补签申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return reg, nil
}

// applyRegularisation 批准补签：按班次起止写入 REGULARIZED 记录，跨夜班次签退落在次日
func (s *attendanceService) applyRegularisation(ctx context.Context, txRepo *repository.Repository, reg *model.RegularisationRequest, approverID string) error {
	shift := s.resolver.Resolve(ctx, reg.UserID, reg.Date)
	w, err := shift.Window()
	if err != nil {
		return err
	}
	checkIn, err := s.clock.At(reg.Date, shift.StartTime, 0)
	if err != nil {
		return err
	}
	endOffset := 0
	if w.Overnight() {
		endOffset = 1
	}
	checkOut, err := s.clock.At(reg.Date, shift.EndTime, endOffset)
	if err != nil {
		return err
	}

	rec, err := txRepo.Attendance.GetByUserAndDate(ctx, reg.UserID, reg.Date)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	isNew := rec == nil
	if isNew {
		rec = &model.AttendanceRecord{UserID: reg.UserID, Date: reg.Date}
		rec.CreatedBy = &approverID
	}

	applyResult(rec, shift, attendance.Result{
		Status:    attendance.StatusRegularized,
		Criteria:  attendance.CriteriaRegularization,
		WorkHours: s.cfg.Org.RegularisedWorkHours,
	})
	rec.CheckIn = &checkIn
	rec.CheckOut = &checkOut
	rec.Method = model.MethodRegularisation
	rec.UpdatedBy = &approverID

	if isNew {
		return txRepo.Attendance.Create(ctx, rec)
	}
	return txRepo.Attendance.Update(ctx, rec)
}

func leaveOn(leaves []model.LeaveRequest, day time.Time) *model.LeaveRequest {
	for i := range leaves {
		if leaves[i].Covers(day) {
			return &leaves[i]
		}
	}
	return nil
}

func toRegularisationResponse(clock attendance.Clock, reg *model.RegularisationRequest) *dto.RegularisationResponse {
	resp := &dto.RegularisationResponse{
		ID:           reg.RequestID,
		UserID:       reg.UserID,
		Date:         clock.FormatDate(reg.Date),
		Type:         reg.Type,
		Reason:       reg.Reason,
		Status:       reg.Status,
		ExceedsLimit: reg.ExceedsLimit,
		ApproverID:   reg.ApproverID,
		CreatedAt:    formatTime(reg.CreatedAt),
	}
	if reg.User != nil {
		resp.UserName = reg.User.FullName
	}
	return resp
}
