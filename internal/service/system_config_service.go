package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/attendance"
	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

// ── 系统配置模块业务错误 ──

var (
	ErrInvalidClock = pkgerrors.Validation("时间格式应为 HH:MM")
)

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	org    config.OrgConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{org: cfg.Org, repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	row, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未初始化时返回配置文件中的默认策略
			return toSystemConfigResponse(defaultSystemConfig(s.org)), nil
		}
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(row), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	row, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询系统配置失败", zap.Error(err))
			return nil, err
		}
		row = defaultSystemConfig(s.org)
	}

	if req.DefaultShiftStart != nil {
		if _, err := attendance.ParseClock(*req.DefaultShiftStart); err != nil {
			return nil, ErrInvalidClock
		}
		row.DefaultShiftStart = *req.DefaultShiftStart
	}
	if req.DefaultShiftEnd != nil {
		if _, err := attendance.ParseClock(*req.DefaultShiftEnd); err != nil {
			return nil, ErrInvalidClock
		}
		row.DefaultShiftEnd = *req.DefaultShiftEnd
	}
	if req.DefaultGraceMinutes != nil {
		row.DefaultGraceMinutes = *req.DefaultGraceMinutes
	}
	if req.OvernightCutoffHour != nil {
		row.OvernightCutoffHour = *req.OvernightCutoffHour
	}
	if req.RegularisationMonthCap != nil {
		row.RegularisationMonthCap = *req.RegularisationMonthCap
	}

	row.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, row); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}

	return toSystemConfigResponse(row), nil
}

// ── 内部辅助方法 ──

// policy 考勤策略：数据库配置优先，缺失时使用配置文件默认值
type policy struct {
	DefaultShiftStart      string
	DefaultShiftEnd        string
	DefaultGraceMinutes    int
	OvernightCutoffHour    int
	RegularisationMonthCap int
}

func loadPolicy(ctx context.Context, repo *repository.Repository, org config.OrgConfig, logger *zap.Logger) policy {
	row, err := repo.SystemConfig.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("读取系统配置失败，使用默认考勤策略", zap.Error(err))
		}
		row = defaultSystemConfig(org)
	}
	return policy{
		DefaultShiftStart:      row.DefaultShiftStart,
		DefaultShiftEnd:        row.DefaultShiftEnd,
		DefaultGraceMinutes:    row.DefaultGraceMinutes,
		OvernightCutoffHour:    row.OvernightCutoffHour,
		RegularisationMonthCap: row.RegularisationMonthCap,
	}
}

func defaultSystemConfig(org config.OrgConfig) *model.SystemConfig {
	return &model.SystemConfig{
		Singleton:              true,
		DefaultShiftStart:      org.DefaultShiftStart,
		DefaultShiftEnd:        org.DefaultShiftEnd,
		DefaultGraceMinutes:    org.DefaultGraceMinutes,
		OvernightCutoffHour:    org.OvernightCutoffHour,
		RegularisationMonthCap: org.RegularisationMonthCap,
	}
}

func toSystemConfigResponse(row *model.SystemConfig) *dto.SystemConfigResponse {
	resp := &dto.SystemConfigResponse{
		DefaultShiftStart:      row.DefaultShiftStart,
		DefaultShiftEnd:        row.DefaultShiftEnd,
		DefaultGraceMinutes:    row.DefaultGraceMinutes,
		OvernightCutoffHour:    row.OvernightCutoffHour,
		RegularisationMonthCap: row.RegularisationMonthCap,
	}
	if !row.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTime(row.UpdatedAt)
	}
	return resp
}
