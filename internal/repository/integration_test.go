//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"purple-port/backend/internal/model"
	"purple-port/backend/internal/repository"
	"purple-port/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=purple_port_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 与线上一致：用 SQL 迁移建表并写入种子科目
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// createLedger 在指定科目下创建测试账户，返回清理函数
func createLedger(t *testing.T, repo *repository.Repository, headCode, name string) (*model.Ledger, func()) {
	t.Helper()
	ctx := context.Background()

	head, err := repo.AccountHead.GetByCode(ctx, headCode)
	if err != nil {
		t.Fatalf("查询种子科目 %s 失败: %v", headCode, err)
	}
	l := &model.Ledger{
		Name:       fmt.Sprintf("%s-%d", name, time.Now().UnixNano()),
		HeadID:     head.HeadID,
		EntityType: model.EntityInternal,
		Status:     "ACTIVE",
		Balance:    decimal.Zero,
	}
	if err := repo.Ledger.Create(ctx, l); err != nil {
		t.Fatalf("创建账户失败: %v", err)
	}
	return l, func() {
		testDB.Where("ledger_id = ?", l.LedgerID).Delete(&model.JournalLine{})
		testDB.Where("ledger_id = ?", l.LedgerID).Delete(&model.Ledger{})
	}
}

// ═══════════════════════════════════════════════════════════
// Ledger
// ═══════════════════════════════════════════════════════════

func TestLedgerRepo_AddBalanceInTx(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	l, cleanup := createLedger(t, repo, "1100", "Test Bank")
	defer cleanup()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("开启事务失败: %v", err)
	}
	txRepo := repo.WithTx(tx)
	if _, err := txRepo.Ledger.GetForUpdate(ctx, l.LedgerID); err != nil {
		tx.Rollback()
		t.Fatalf("GetForUpdate 应成功: %v", err)
	}
	if err := txRepo.Ledger.AddBalance(ctx, l.LedgerID, decimal.NewFromInt(100)); err != nil {
		tx.Rollback()
		t.Fatalf("AddBalance 应成功: %v", err)
	}
	if err := txRepo.Ledger.AddBalance(ctx, l.LedgerID, decimal.RequireFromString("-30.25")); err != nil {
		tx.Rollback()
		t.Fatalf("AddBalance 应成功: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("提交失败: %v", err)
	}

	got, err := repo.Ledger.GetByID(ctx, l.LedgerID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("69.75")) {
		t.Errorf("期望余额 69.75，实际=%s", got.Balance)
	}
}

func TestLedgerRepo_RollbackDiscardsBalance(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	l, cleanup := createLedger(t, repo, "1100", "Test Cash")
	defer cleanup()

	tx, _ := repo.BeginTx(ctx)
	if err := repo.WithTx(tx).Ledger.AddBalance(ctx, l.LedgerID, decimal.NewFromInt(500)); err != nil {
		tx.Rollback()
		t.Fatalf("AddBalance 应成功: %v", err)
	}
	tx.Rollback()

	got, _ := repo.Ledger.GetByID(ctx, l.LedgerID)
	if !got.Balance.IsZero() {
		t.Errorf("回滚后余额应为 0，实际=%s", got.Balance)
	}
}

// ═══════════════════════════════════════════════════════════
// Journal
// ═══════════════════════════════════════════════════════════

func TestJournalRepo_SumsAndRange(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)
	bank, cleanBank := createLedger(t, repo, "1100", "Journal Bank")
	defer cleanBank()
	rent, cleanRent := createLedger(t, repo, "6000", "Journal Rent")
	defer cleanRent()

	post := func(date time.Time, amount int64) *model.JournalEntry {
		amt := decimal.NewFromInt(amount)
		entry := &model.JournalEntry{
			Date:        date,
			Description: "rent",
			Amount:      amt,
			Type:        model.EntryExpense,
			Lines: []model.JournalLine{
				{LedgerID: rent.LedgerID, Debit: amt, Credit: decimal.Zero},
				{LedgerID: bank.LedgerID, Debit: decimal.Zero, Credit: amt},
			},
		}
		if err := repo.Journal.CreateEntry(ctx, entry); err != nil {
			t.Fatalf("CreateEntry 应成功: %v", err)
		}
		return entry
	}

	feb := time.Date(2026, 2, 14, 18, 30, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 4, 18, 30, 0, 0, time.UTC)
	first := post(feb, 200)
	second := post(mar, 50)
	defer repo.Journal.DeleteEntry(ctx, first.EntryID)

	before, err := repo.Journal.SumLinesBefore(ctx, rent.LedgerID, time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("SumLinesBefore 应成功: %v", err)
	}
	if !before.Debit.Equal(decimal.NewFromInt(200)) || !before.Credit.IsZero() {
		t.Errorf("期望期初 借200/贷0，实际=%s/%s", before.Debit, before.Credit)
	}

	lines, err := repo.Journal.ListLinesInRange(ctx, bank.LedgerID, time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC), time.Date(2026, 3, 30, 18, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListLinesInRange 应成功: %v", err)
	}
	if len(lines) != 1 || !lines[0].Credit.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("期望区间内 1 行贷 50，实际=%d 行", len(lines))
	}
	if lines[0].Entry == nil || lines[0].Entry.EntryID != second.EntryID {
		t.Errorf("分录行应预加载凭证头")
	}

	if err := repo.Journal.DeleteEntry(ctx, second.EntryID); err != nil {
		t.Fatalf("DeleteEntry 应成功: %v", err)
	}
	n, _ := repo.Journal.CountLinesByLedger(ctx, bank.LedgerID)
	if n != 1 {
		t.Errorf("删除后期望剩余 1 行，实际=%d", n)
	}
}

// ═══════════════════════════════════════════════════════════
// Attendance
// ═══════════════════════════════════════════════════════════

func TestAttendanceRepo_UniquePerUserDay(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	user := &model.User{
		FullName:     "Integration Staff",
		Email:        fmt.Sprintf("it-%d@purple.port", time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         model.RoleStaff,
		IsActive:     true,
	}
	if err := repo.User.Create(ctx, user); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	defer testDB.Unscoped().Where("user_id = ?", user.UserID).Delete(&model.User{})
	defer testDB.Where("user_id = ?", user.UserID).Delete(&model.AttendanceRecord{})

	// 2026-03-10 IST 零点
	day := time.Date(2026, 3, 9, 18, 30, 0, 0, time.UTC)
	in := day.Add(3*time.Hour + 35*time.Minute)
	rec := &model.AttendanceRecord{UserID: user.UserID, Date: day, CheckIn: &in, Status: "PRESENT", Method: model.MethodWeb}
	if err := repo.Attendance.Create(ctx, rec); err != nil {
		t.Fatalf("创建考勤失败: %v", err)
	}

	dup := &model.AttendanceRecord{UserID: user.UserID, Date: day, CheckIn: &in, Status: "PRESENT", Method: model.MethodBiometric}
	if err := repo.Attendance.Create(ctx, dup); err == nil {
		t.Error("同一员工同一天重复写入应违反唯一约束")
	}

	got, err := repo.Attendance.GetByUserAndDate(ctx, user.UserID, day)
	if err != nil {
		t.Fatalf("GetByUserAndDate 应成功: %v", err)
	}
	if got.AttendanceID != rec.AttendanceID || got.Method != model.MethodWeb {
		t.Errorf("查询结果不符: %+v", got)
	}

	list, err := repo.Attendance.ListByUserRange(ctx, user.UserID, day.AddDate(0, 0, -1), day)
	if err != nil || len(list) != 1 {
		t.Errorf("区间查询期望 1 条，实际=%d err=%v", len(list), err)
	}
}
