package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"purple-port/backend/internal/dto"
)

// ── 测试辅助 ──

type exportFixture struct {
	svc    ExportService
	ledger *ledgerFixture
	pay    PayrollService
}

func setupTestExportService() *exportFixture {
	lf := setupTestLedgerService()
	pay := NewPayrollService(testConfig(), lf.repos.repository(), testClock, fixedNow, zap.NewNop())
	return &exportFixture{
		svc:    NewExportService(lf.svc, pay, zap.NewNop()),
		ledger: lf,
		pay:    pay,
	}
}

// readCells 读取工作表中若干单元格的原始值
func readCells(t *testing.T, f *excelize.File, sheet string, cells ...string) map[string]string {
	t.Helper()
	out := make(map[string]string, len(cells))
	for _, c := range cells {
		v, err := f.GetCellValue(sheet, c, excelize.Options{RawCellValue: true})
		if err != nil {
			t.Fatalf("读取 %s 失败: %v", c, err)
		}
		out[c] = v
	}
	return out
}

// ── ExportStatement 测试 ──

func TestExportService_ExportStatement(t *testing.T) {
	fx := setupTestExportService()
	ctx := context.Background()
	rent := fx.ledger.repos.ledger.seed("Office Rent", "6000")

	for _, r := range []dto.RecordTransactionRequest{
		{FromLedgerID: fx.ledger.bank, ToLedgerID: rent, Amount: dec("100"), Date: "2026-02-20", Description: "feb rent"},
		{FromLedgerID: fx.ledger.bank, ToLedgerID: rent, Amount: dec("200"), Date: "2026-03-05", Description: "mar rent"},
		{FromLedgerID: rent, ToLedgerID: fx.ledger.bank, Amount: dec("50"), Date: "2026-03-31", Description: "refund"},
	} {
		req := r
		if _, err := fx.ledger.svc.RecordTransaction(ctx, &req, "admin-1"); err != nil {
			t.Fatalf("RecordTransaction 应成功: %v", err)
		}
	}

	buf, filename, err := fx.svc.ExportStatement(ctx, rent, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("ExportStatement 应成功: %v", err)
	}
	if filename != "statement_Office Rent_2026-03-01_2026-03-31.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可被解析: %v", err)
	}
	defer f.Close()

	got := readCells(t, f, "Statement", "B3", "F3", "A4", "D4", "F4", "E5", "F5", "D6", "E6", "F6")
	want := map[string]string{
		"B3": "Opening Balance", "F3": "100",
		"A4": "2026-03-05", "D4": "200", "F4": "300",
		"E5": "50", "F5": "250",
		"D6": "200", "E6": "50", "F6": "250",
	}
	for c, w := range want {
		if got[c] != w {
			t.Errorf("%s 期望 %q，实际=%q", c, w, got[c])
		}
	}
}

func TestExportService_ExportStatement_LedgerNotFound(t *testing.T) {
	fx := setupTestExportService()

	_, _, err := fx.svc.ExportStatement(context.Background(), "ledger-404", "2026-03-01", "2026-03-31")
	if !errors.Is(err, ErrLedgerNotFound) {
		t.Errorf("期望 ErrLedgerNotFound，实际: %v", err)
	}
}

// ── ExportPayrollRegister 测试 ──

func TestExportService_ExportPayrollRegister(t *testing.T) {
	fx := setupTestExportService()
	ctx := context.Background()
	p := fx.ledger.repos.addStaff("user-1", "PP001")
	p.BaseSalary = dec("20000")
	p.HRA = dec("8000")
	p.ConveyanceAllowance = dec("1000")
	p.AccommodationAllowance = dec("1000")
	p.Allowances = dec("500")

	if _, err := fx.pay.SavePayrollSlip(ctx, saveReq("user-1"), "admin-1"); err != nil {
		t.Fatalf("SavePayrollSlip 应成功: %v", err)
	}

	buf, filename, err := fx.svc.ExportPayrollRegister(ctx, 3, 2026)
	if err != nil {
		t.Fatalf("ExportPayrollRegister 应成功: %v", err)
	}
	if filename != "payroll_2026_03.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可被解析: %v", err)
	}
	defer f.Close()

	got := readCells(t, f, "Payroll", "A1", "B3", "H3", "L3", "M3", "A4", "M4")
	if got["A1"] != "Payroll March 2026 (DRAFT)" {
		t.Errorf("标题不符: %q", got["A1"])
	}
	want := map[string]string{"B3": "20000", "H3": "0", "L3": "26", "M3": "30500", "A4": "Total", "M4": "30500"}
	for c, w := range want {
		if got[c] != w {
			t.Errorf("%s 期望 %q，实际=%q", c, w, got[c])
		}
	}
}

func TestExportService_ExportPayrollRegister_NoRun(t *testing.T) {
	fx := setupTestExportService()

	_, _, err := fx.svc.ExportPayrollRegister(context.Background(), 3, 2026)
	if !errors.Is(err, ErrPayrollRunNotFound) {
		t.Errorf("期望 ErrPayrollRunNotFound，实际: %v", err)
	}
}
