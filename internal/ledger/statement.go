package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Line 对账单输入行
type Line struct {
	EntryID     string
	Date        time.Time
	Description string
	Reference   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// StatementLine 带滚动余额的对账单行
type StatementLine struct {
	Line
	Balance decimal.Decimal
}

// Statement 对账单
type Statement struct {
	Nature  Nature
	Opening decimal.Decimal
	Closing decimal.Decimal
	Debits  decimal.Decimal
	Credits decimal.Decimal
	Lines   []StatementLine
}

// OpeningBalance 期初余额：起始日之前全部分录行按自然方向累计
func OpeningBalance(n Nature, totalDebit, totalCredit decimal.Decimal) decimal.Decimal {
	return NaturalDelta(n, totalDebit, totalCredit)
}

// Sweep 从期初余额开始按日期顺序累计滚动余额
func Sweep(n Nature, opening decimal.Decimal, lines []Line) Statement {
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	st := Statement{
		Nature:  n,
		Opening: opening,
		Debits:  decimal.Zero,
		Credits: decimal.Zero,
		Lines:   make([]StatementLine, 0, len(sorted)),
	}
	running := opening
	for _, l := range sorted {
		running = running.Add(NaturalDelta(n, l.Debit, l.Credit))
		st.Debits = st.Debits.Add(l.Debit)
		st.Credits = st.Credits.Add(l.Credit)
		st.Lines = append(st.Lines, StatementLine{Line: l, Balance: running})
	}
	st.Closing = running
	return st
}

// Scale 按比例缩放金额，用于修改分录金额时等比调整各行
func Scale(amount, newTotal, oldTotal decimal.Decimal) decimal.Decimal {
	if oldTotal.IsZero() {
		return amount
	}
	return Money(amount.Mul(newTotal).Div(oldTotal))
}
