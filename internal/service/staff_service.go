package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"purple-port/backend/internal/dto"
	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	pkgerrors "purple-port/backend/pkg/errors"
)

var (
	ErrEmailExists       = pkgerrors.Conflict("邮箱已被使用")
	ErrStaffNumberExists = pkgerrors.Conflict("员工编号已被使用")
)

// StaffService 员工入职与档案接口
type StaffService interface {
	Onboard(ctx context.Context, req *dto.OnboardStaffRequest, callerID string) (*dto.OnboardStaffResponse, error)
	List(ctx context.Context, req *dto.StaffListRequest) ([]dto.UserResponse, int64, error)
	GetByUserID(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateSalary(ctx context.Context, userID string, req *dto.UpdateSalaryRequest, callerID string) (*dto.UserResponse, error)

	ParseImportFile(reader io.Reader) ([]ImportStaffRow, error)
	ImportStaff(ctx context.Context, rows []ImportStaffRow, callerID string) (*dto.ImportStaffResponse, error)
}

// ImportStaffRow Excel 导入的一行
type ImportStaffRow struct {
	Row         int
	FullName    string
	Email       string
	StaffNumber string
	Department  string
	Designation string
	BaseSalary  decimal.Decimal
}

type staffService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStaffService 创建 StaffService 实例
func NewStaffService(repo *repository.Repository, logger *zap.Logger) StaffService {
	return &staffService{repo: repo, logger: logger}
}

// ────────────────────── Onboard ──────────────────────

func (s *staffService) Onboard(ctx context.Context, req *dto.OnboardStaffRequest, callerID string) (*dto.OnboardStaffResponse, error) {
	if err := s.checkUnique(ctx, req.Email, req.StaffNumber); err != nil {
		return nil, err
	}
	for _, v := range []decimal.Decimal{req.BaseSalary, req.HRA, req.ConveyanceAllowance, req.AccommodationAllowance, req.Allowances} {
		if v.IsNegative() {
			return nil, ErrNegativeComponent
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleStaff
	}
	user := &model.User{
		FullName:     req.FullName,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	user.CreatedBy = &callerID
	profile := &model.StaffProfile{
		StaffNumber:            req.StaffNumber,
		Department:             req.Department,
		Designation:            req.Designation,
		BaseSalary:             req.BaseSalary.Round(2),
		HRA:                    req.HRA.Round(2),
		ConveyanceAllowance:    req.ConveyanceAllowance.Round(2),
		AccommodationAllowance: req.AccommodationAllowance.Round(2),
		Allowances:             req.Allowances.Round(2),
	}
	profile.CreatedBy = &callerID

	var ledgerID string
	err = runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		l, err := s.createStaff(ctx, txRepo, user, profile)
		if err != nil {
			return err
		}
		ledgerID = l.LedgerID
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("员工入职失败", zap.String("email", req.Email), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("员工入职完成",
		zap.String("user_id", user.UserID),
		zap.String("staff_number", profile.StaffNumber))

	created, err := s.GetByUserID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.OnboardStaffResponse{User: *created, LedgerID: ledgerID}, nil
}

// ────────────────────── List / GetByUserID ──────────────────────

func (s *staffService) List(ctx context.Context, req *dto.StaffListRequest) ([]dto.UserResponse, int64, error) {
	page, size := req.GetPage(), req.GetPageSize()
	users, total, err := s.repo.User.List(ctx, req.Role, (page-1)*size, size)
	if err != nil {
		s.logger.Error("查询员工列表失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *staffService) GetByUserID(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── UpdateSalary ──────────────────────

func (s *staffService) UpdateSalary(ctx context.Context, userID string, req *dto.UpdateSalaryRequest, callerID string) (*dto.UserResponse, error) {
	profile, err := s.repo.StaffProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffProfileAbsent
		}
		s.logger.Error("查询员工档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	fields := []struct {
		in  *decimal.Decimal
		dst *decimal.Decimal
	}{
		{req.BaseSalary, &profile.BaseSalary},
		{req.HRA, &profile.HRA},
		{req.ConveyanceAllowance, &profile.ConveyanceAllowance},
		{req.AccommodationAllowance, &profile.AccommodationAllowance},
		{req.Allowances, &profile.Allowances},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		if f.in.IsNegative() {
			return nil, ErrNegativeComponent
		}
		*f.dst = f.in.Round(2)
	}
	profile.UpdatedBy = &callerID
	profile.User = nil

	if err := s.repo.StaffProfile.Update(ctx, profile); err != nil {
		s.logger.Error("更新薪资结构失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.GetByUserID(ctx, userID)
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = pkgerrors.Validation("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = pkgerrors.Validation(fmt.Sprintf("数据行数超过上限 %d 行", maxImportRows))
	ErrImportBadHeader   = pkgerrors.Validation("Excel表头缺少必要列（姓名/邮箱/工号）")
	ErrImportBadFile     = pkgerrors.Validation("无法解析Excel文件")
)

// ParseImportFile 解析员工导入 Excel，第一行为表头，列序不限
func (s *staffService) ParseImportFile(reader io.Reader) ([]ImportStaffRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, ErrImportBadFile
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["full_name"] < 0 || colIndex["email"] < 0 || colIndex["staff_number"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportStaffRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportStaffRow{
			Row:         i + 1,
			FullName:    cell(row, "full_name"),
			Email:       cell(row, "email"),
			StaffNumber: cell(row, "staff_number"),
			Department:  cell(row, "department"),
			Designation: cell(row, "designation"),
			BaseSalary:  decimal.Zero,
		}
		if v := cell(row, "base_salary"); v != "" {
			if d, err := decimal.NewFromString(v); err == nil {
				item.BaseSalary = d
			}
		}

		// 跳过全空行
		if item.FullName == "" && item.Email == "" && item.StaffNumber == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"full_name":    -1,
		"email":        -1,
		"staff_number": -1,
		"department":   -1,
		"designation":  -1,
		"base_salary":  -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "姓名", "name", "full_name":
			idx["full_name"] = i
		case "邮箱", "email":
			idx["email"] = i
		case "工号", "staff_number", "employee_id":
			idx["staff_number"] = i
		case "部门", "department":
			idx["department"] = i
		case "职位", "designation":
			idx["designation"] = i
		case "基本工资", "base_salary":
			idx["base_salary"] = i
		}
	}
	return idx
}

// ────────────────────── ImportStaff ──────────────────────

// ImportStaff 先逐行校验，再在一个事务中写入全部合格行。
// 初始密码 = "Pp" + 工号后 6 位。
func (s *staffService) ImportStaff(ctx context.Context, rows []ImportStaffRow, callerID string) (*dto.ImportStaffResponse, error) {
	resp := &dto.ImportStaffResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportStaffError{Row: row, Reason: reason})
	}

	type validatedRow struct {
		row  ImportStaffRow
		hash []byte
	}
	var validRows []validatedRow
	seenEmail := make(map[string]bool)
	seenNumber := make(map[string]bool)

	for _, row := range rows {
		if row.FullName == "" || row.Email == "" || row.StaffNumber == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		email := strings.ToLower(row.Email)
		if seenEmail[email] || seenNumber[row.StaffNumber] {
			fail(row.Row, "文件内重复的邮箱或工号")
			continue
		}
		if err := s.checkUnique(ctx, email, row.StaffNumber); err != nil {
			if !isDomainError(err) {
				return nil, err
			}
			fail(row.Row, pkgerrors.Message(err))
			continue
		}
		if row.BaseSalary.IsNegative() {
			fail(row.Row, "基本工资不能为负")
			continue
		}

		defaultPwd := row.StaffNumber
		if len(defaultPwd) > 6 {
			defaultPwd = defaultPwd[len(defaultPwd)-6:]
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("Pp"+defaultPwd), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seenEmail[email] = true
		seenNumber[row.StaffNumber] = true
		row.Email = email
		validRows = append(validRows, validatedRow{row: row, hash: hash})
	}

	if len(validRows) == 0 {
		return resp, nil
	}

	err := runInTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		for _, vr := range validRows {
			user := &model.User{
				FullName:     vr.row.FullName,
				Email:        vr.row.Email,
				PasswordHash: string(vr.hash),
				Role:         model.RoleStaff,
				IsActive:     true,
			}
			user.CreatedBy = &callerID
			profile := &model.StaffProfile{
				StaffNumber:            vr.row.StaffNumber,
				Department:             vr.row.Department,
				Designation:            vr.row.Designation,
				BaseSalary:             vr.row.BaseSalary.Round(2),
				HRA:                    decimal.Zero,
				ConveyanceAllowance:    decimal.Zero,
				AccommodationAllowance: decimal.Zero,
				Allowances:             decimal.Zero,
			}
			profile.CreatedBy = &callerID
			if _, err := s.createStaff(ctx, txRepo, user, profile); err != nil {
				return fmt.Errorf("第 %d 行写入数据库失败，已回滚全部导入: %w", vr.row.Row, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入员工写入失败，事务回滚", zap.Error(err))
		return nil, err
	}

	resp.Success = len(validRows)
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *staffService) checkUnique(ctx context.Context, email, staffNumber string) error {
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if _, err := s.repo.StaffProfile.GetByStaffNumber(ctx, staffNumber); err == nil {
		return ErrStaffNumberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询员工档案失败", zap.Error(err))
		return err
	}
	return nil
}

// createStaff 写入用户、档案与员工往来账户
func (s *staffService) createStaff(ctx context.Context, repo *repository.Repository, user *model.User, profile *model.StaffProfile) (*model.Ledger, error) {
	if err := repo.User.Create(ctx, user); err != nil {
		return nil, err
	}
	profile.UserID = user.UserID
	if err := repo.StaffProfile.Create(ctx, profile); err != nil {
		return nil, err
	}
	userID := user.UserID
	return ensureLedger(ctx, repo, EnsureLedgerInput{
		EntityType: model.EntityUser,
		EntityID:   &userID,
		HeadCode:   headCodeLiability, // 员工往来账户挂在负债科目下
		Name:       user.FullName,
	})
}
