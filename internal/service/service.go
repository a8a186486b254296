package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/repository"
	"purple-port/backend/pkg/jwt"
	"purple-port/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Staff        StaffService
	SystemConfig SystemConfigService
	Shift        ShiftService
	Attendance   AttendanceService
	Biometric    BiometricService
	Leave        LeaveService
	Ledger       LedgerService
	Payroll      PayrollService
	Export       ExportService
}

// TokenStore Token 黑名单存储
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// BridgeHeartbeat 考勤桥接心跳存储
type BridgeHeartbeat interface {
	TouchBridge(ctx context.Context, deviceID string, at time.Time, ttl time.Duration) error
	BridgeLastSeen(ctx context.Context, deviceID string) (time.Time, bool, error)
}

// NewService 创建 Service 聚合
// rdb 为 nil 时黑名单与桥接心跳降级为不可用
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		tokens    TokenStore
		heartbeat BridgeHeartbeat
	)
	if rdb != nil {
		tokens = rdb
		heartbeat = rdb
	}

	clock := attendance.NewClock(cfg.Org.UTCOffsetMinutes)
	now := time.Now

	resolver := NewShiftResolver(repo, cfg.Org, clock, logger)
	attendanceSvc := NewAttendanceService(cfg, repo, resolver, now, logger)
	ledgerSvc := NewLedgerService(cfg, repo, clock, now, logger)
	payrollSvc := NewPayrollService(cfg, repo, clock, now, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, tokens, logger),
		Staff:        NewStaffService(repo, logger),
		SystemConfig: NewSystemConfigService(cfg, repo, logger),
		Shift:        NewShiftService(repo, resolver, attendanceSvc, now, logger),
		Attendance:   attendanceSvc,
		Biometric:    NewBiometricService(cfg, repo, resolver, heartbeat, now, logger),
		Leave:        NewLeaveService(repo, clock, logger),
		Ledger:       ledgerSvc,
		Payroll:      payrollSvc,
		Export:       NewExportService(ledgerSvc, payrollSvc, logger),
	}
}

// ── 内部辅助方法 ──

// runInTx 在单个事务中执行 fn，fn 返回错误或 panic 时整体回滚。
// 单元测试中 BeginTx 返回 nil 事务，fn 直接作用于原聚合。
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
