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

// ── 考勤机同步业务错误 ──

var (
	ErrBridgeDisabled = pkgerrors.NotFound("考勤桥接未启用")
)

// 桥接状态
const (
	BridgeOnline  = "ONLINE"
	BridgeOffline = "OFFLINE"
	BridgeUnknown = "UNKNOWN"
)

// BiometricService 考勤机日志对账接口
type BiometricService interface {
	// ProcessLogs 逐条对账，单条失败不影响其他事件；重复推送同一事件结果不变
	ProcessLogs(ctx context.Context, events []dto.PunchEvent) *dto.SyncReport
	BridgeUpload(ctx context.Context, req *dto.BridgeUploadRequest) (*dto.SyncReport, error)
	BridgeStatus(ctx context.Context, deviceID string) *dto.BridgeStatusResponse
}

type biometricService struct {
	cfg       *config.Config
	repo      *repository.Repository
	resolver  *ShiftResolver
	engine    *attendance.Engine
	clock     attendance.Clock
	heartbeat BridgeHeartbeat
	now       func() time.Time
	logger    *zap.Logger
}

// NewBiometricService 创建 BiometricService 实例，heartbeat 为 nil 时桥接状态恒为 UNKNOWN
func NewBiometricService(
	cfg *config.Config,
	repo *repository.Repository,
	resolver *ShiftResolver,
	heartbeat BridgeHeartbeat,
	now func() time.Time,
	logger *zap.Logger,
) BiometricService {
	return &biometricService{
		cfg:       cfg,
		repo:      repo,
		resolver:  resolver,
		engine:    attendance.NewEngine(resolver.Clock()),
		clock:     resolver.Clock(),
		heartbeat: heartbeat,
		now:       now,
		logger:    logger,
	}
}

// ────────────────────── ProcessLogs ──────────────────────

func (s *biometricService) ProcessLogs(ctx context.Context, events []dto.PunchEvent) *dto.SyncReport {
	report := &dto.SyncReport{}
	today := s.clock.LocalMidnight(s.now())
	p := loadPolicy(ctx, s.repo, s.cfg.Org, s.logger)
	staffUsers := make(map[string]string) // staff_number → user_id

	for i, ev := range events {
		fail := func(reason string) {
			report.Failed++
			report.Errors = append(report.Errors, dto.SyncError{Index: i, StaffNumber: ev.StaffNumber, Reason: reason})
		}

		at, err := s.clock.ParseTimestamp(ev.Timestamp)
		if err != nil {
			fail("时间戳格式无效: " + ev.Timestamp)
			continue
		}

		userID, ok := staffUsers[ev.StaffNumber]
		if !ok {
			profile, err := s.repo.StaffProfile.GetByStaffNumber(ctx, ev.StaffNumber)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					fail("未知员工编号")
				} else {
					s.logger.Error("查询员工档案失败", zap.String("staff_number", ev.StaffNumber), zap.Error(err))
					fail("查询员工档案失败")
				}
				continue
			}
			userID = profile.UserID
			staffUsers[ev.StaffNumber] = userID
		}

		if err := s.reconcile(ctx, userID, at, today, p.OvernightCutoffHour); err != nil {
			s.logger.Error("考勤机事件对账失败",
				zap.String("staff_number", ev.StaffNumber),
				zap.String("timestamp", ev.Timestamp),
				zap.Error(err))
			fail("写入考勤失败")
			continue
		}
		report.Success++
	}

	s.logger.Info("考勤机日志同步完成",
		zap.Int("total", len(events)),
		zap.Int("success", report.Success),
		zap.Int("failed", report.Failed))
	return report
}

// ────────────────────── BridgeUpload ──────────────────────

func (s *biometricService) BridgeUpload(ctx context.Context, req *dto.BridgeUploadRequest) (*dto.SyncReport, error) {
	if !s.cfg.Biometric.BridgeEnabled {
		return nil, ErrBridgeDisabled
	}

	if s.heartbeat != nil {
		// 心跳保留两个在线窗口，过期即视为离线
		ttl := 2 * s.cfg.Biometric.OnlineWindow
		if err := s.heartbeat.TouchBridge(ctx, req.DeviceID, s.now(), ttl); err != nil {
			s.logger.Warn("记录桥接心跳失败", zap.String("device_id", req.DeviceID), zap.Error(err))
		}
	}

	return s.ProcessLogs(ctx, req.Logs), nil
}

// ────────────────────── BridgeStatus ──────────────────────

func (s *biometricService) BridgeStatus(ctx context.Context, deviceID string) *dto.BridgeStatusResponse {
	resp := &dto.BridgeStatusResponse{DeviceID: deviceID, Status: BridgeUnknown}
	if s.heartbeat == nil {
		return resp
	}

	lastSeen, ok, err := s.heartbeat.BridgeLastSeen(ctx, deviceID)
	if err != nil {
		s.logger.Warn("读取桥接心跳失败", zap.String("device_id", deviceID), zap.Error(err))
		return resp
	}
	if !ok {
		resp.Status = BridgeOffline
		return resp
	}

	resp.LastSeen = formatTimePtr(&lastSeen)
	if s.now().Sub(lastSeen) <= s.cfg.Biometric.OnlineWindow {
		resp.Status = BridgeOnline
	} else {
		resp.Status = BridgeOffline
	}
	return resp
}

// ── 内部辅助方法 ──

// reconcile 单条事件在独立事务中完成：定位记录 → 合并打卡 → 重新判定
func (s *biometricService) reconcile(ctx context.Context, userID string, at, today time.Time, cutoffHour int) error {
	key := s.clock.LocalMidnight(at)

	return runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		rec, err := txRepo.Attendance.GetByUserAndDate(ctx, userID, key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// 跨夜回溯：凌晨打卡且当日无记录时，归入前一天未签退的记录
		if rec == nil && s.clock.Hour(at) < cutoffHour {
			prev, err := txRepo.Attendance.GetByUserAndDate(ctx, userID, key.AddDate(0, 0, -1))
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if prev != nil && prev.CheckOut == nil {
				rec = prev
			}
		}

		if rec != nil && rec.Locked() {
			return nil
		}

		if rec == nil {
			shift := s.resolver.Resolve(ctx, userID, key)
			res, err := s.engine.ComputeStatus(shift, at, nil, key.Before(today))
			if err != nil {
				return err
			}
			rec = &model.AttendanceRecord{
				UserID:  userID,
				Date:    key,
				CheckIn: &at,
				Method:  model.MethodBiometric,
			}
			applyResult(rec, shift, res)
			return txRepo.Attendance.Create(ctx, rec)
		}

		changed := mergePunch(rec, at)
		pastDay := rec.Date.Before(today)
		provisional := rec.Status == string(attendance.StatusPresent) && rec.CheckOut == nil && pastDay
		if !changed && !provisional {
			return nil
		}

		shift := s.resolver.Resolve(ctx, userID, rec.Date)
		res, err := s.engine.ComputeStatus(shift, *rec.CheckIn, rec.CheckOut, pastDay)
		if err != nil {
			return err
		}
		applyResult(rec, shift, res)
		rec.Method = model.MethodBiometric
		return txRepo.Attendance.Update(ctx, rec)
	})
}

// mergePunch 合并一次打卡：早于签到则只前移签到；晚于签到且晚于现有签退才更新签退
func mergePunch(rec *model.AttendanceRecord, at time.Time) bool {
	if rec.CheckIn == nil {
		rec.CheckIn = &at
		return true
	}
	if at.Before(*rec.CheckIn) {
		rec.CheckIn = &at
		return true
	}
	if at.After(*rec.CheckIn) && (rec.CheckOut == nil || at.After(*rec.CheckOut)) {
		rec.CheckOut = &at
		return true
	}
	return false
}
