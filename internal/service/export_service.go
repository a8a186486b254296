package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportStatement 导出账户对账单
	ExportStatement(ctx context.Context, ledgerID, start, end string) (*bytes.Buffer, string, error)
	// ExportPayrollRegister 导出某月工资发放表
	ExportPayrollRegister(ctx context.Context, month, year int) (*bytes.Buffer, string, error)
}

type exportService struct {
	ledger  LedgerService
	payroll PayrollService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(ledger LedgerService, payroll PayrollService, logger *zap.Logger) ExportService {
	return &exportService{ledger: ledger, payroll: payroll, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportStatement 导出账户对账单
// ═══════════════════════════════════════════════════════════
//
// 表头: | 日期 | 摘要 | 参考号 | 借方 | 贷方 | 余额 |
// 首行为期初余额，末行为合计与期末余额

func (s *exportService) ExportStatement(ctx context.Context, ledgerID, start, end string) (*bytes.Buffer, string, error) {
	st, err := s.ledger.GetAccountStatement(ctx, ledgerID, start, end)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Statement"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "B", "B", 40)
	f.SetColWidth(sheet, "C", "C", 16)
	f.SetColWidth(sheet, "D", "F", 16)

	headerStyle := newHeaderStyle(f)
	amountStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s ~ %s)", st.LedgerName, st.Start, st.End))
	f.MergeCell(sheet, "A1", "F1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	headers := []string{"Date", "Description", "Reference", "Debit", "Credit", "Balance"}
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", "F2", headerStyle)

	row := 3
	f.SetCellValue(sheet, cell("A", row), st.Start)
	f.SetCellValue(sheet, cell("B", row), "Opening Balance")
	f.SetCellValue(sheet, cell("F", row), money(st.OpeningBalance))
	row++

	for _, l := range st.Lines {
		f.SetCellValue(sheet, cell("A", row), l.Date)
		f.SetCellValue(sheet, cell("B", row), l.Description)
		f.SetCellValue(sheet, cell("C", row), l.Reference)
		if l.Debit.IsPositive() {
			f.SetCellValue(sheet, cell("D", row), money(l.Debit))
		}
		if l.Credit.IsPositive() {
			f.SetCellValue(sheet, cell("E", row), money(l.Credit))
		}
		f.SetCellValue(sheet, cell("F", row), money(l.Balance))
		row++
	}

	f.SetCellValue(sheet, cell("B", row), "Total / Closing Balance")
	f.SetCellValue(sheet, cell("D", row), money(st.TotalDebit))
	f.SetCellValue(sheet, cell("E", row), money(st.TotalCredit))
	f.SetCellValue(sheet, cell("F", row), money(st.ClosingBalance))
	f.SetCellStyle(sheet, cell("D", 3), cell("F", row), amountStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("ledger_id", ledgerID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("statement_%s_%s_%s.xlsx", st.LedgerName, st.Start, st.End), nil
}

// ═══════════════════════════════════════════════════════════
// ExportPayrollRegister 导出工资发放表
// ═══════════════════════════════════════════════════════════
//
// 每个员工一行，末行合计实发与扣款

func (s *exportService) ExportPayrollRegister(ctx context.Context, month, year int) (*bytes.Buffer, string, error) {
	run, err := s.payroll.GetPayrollRunDetails(ctx, month, year)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Payroll"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Staff", "Basic", "HRA", "Conveyance", "Accommodation", "Allowances", "Incentives",
		"LOP Days", "LOP Deduction", "Advance", "Other Deductions", "Working Days", "Net Pay", "Status",
	}
	last := colName(len(headers) - 1)
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", last, 14)

	headerStyle := newHeaderStyle(f)
	title := fmt.Sprintf("Payroll %s %d (%s)", time.Month(month), year, run.Status)
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", last+"1")
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", last+"2", headerStyle)

	row := 3
	for _, sl := range run.Slips {
		name := sl.FullName
		if name == "" {
			name = sl.UserID
		}
		values := []interface{}{
			name,
			money(sl.BasicSalary), money(sl.HRA), money(sl.ConveyanceAllowance),
			money(sl.AccommodationAllowance), money(sl.Allowances), money(sl.Incentives),
			sl.LOPDays.InexactFloat64(), money(sl.LOPDeduction),
			money(sl.AdvanceSalary), money(sl.OtherDeductions),
			sl.TotalWorkingDays, money(sl.NetPay), sl.Status,
		}
		for i, v := range values {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		row++
	}

	f.SetCellValue(sheet, cell("A", row), "Total")
	f.SetCellValue(sheet, cell(colName(8), row), money(run.TotalDeductions))
	f.SetCellValue(sheet, cell(colName(12), row), money(run.TotalPayout))

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Int("month", month), zap.Int("year", year), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("payroll_%d_%02d.xlsx", year, month), nil
}

// ── 辅助函数 ──

func newHeaderStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
