// Package ledger 复式记账的符号约定与对账单计算。
//
// 存储层统一采用"借方为正"：借记增加余额、贷记减少余额。
// 资产/费用类账户自然为正，负债/收入/权益类账户存储为负，
// 展示层通过 SignedBalance 按科目性质取反。
package ledger

import "github.com/shopspring/decimal"

// HeadType 会计科目类型
type HeadType string

const (
	HeadAsset     HeadType = "ASSET"
	HeadLiability HeadType = "LIABILITY"
	HeadIncome    HeadType = "INCOME"
	HeadExpense   HeadType = "EXPENSE"
	HeadEquity    HeadType = "EQUITY"
)

// Valid 是否为已知科目类型
func (h HeadType) Valid() bool {
	switch h {
	case HeadAsset, HeadLiability, HeadIncome, HeadExpense, HeadEquity:
		return true
	}
	return false
}

// Nature 账户余额方向
type Nature int

const (
	DebitNature Nature = iota
	CreditNature
)

func (n Nature) String() string {
	if n == DebitNature {
		return "DEBIT"
	}
	return "CREDIT"
}

// NatureOf 资产、费用为借方性质，其余为贷方性质
func NatureOf(h HeadType) Nature {
	if h == HeadAsset || h == HeadExpense {
		return DebitNature
	}
	return CreditNature
}

// SignedBalance 存储余额与其科目性质
type SignedBalance struct {
	Raw    decimal.Decimal
	Nature Nature
}

// NewSignedBalance 以存储余额和科目类型构造
func NewSignedBalance(raw decimal.Decimal, head HeadType) SignedBalance {
	return SignedBalance{Raw: raw, Nature: NatureOf(head)}
}

// Display 按科目性质呈现的余额，贷方性质账户取反
func (b SignedBalance) Display() decimal.Decimal {
	if b.Nature == CreditNature {
		return b.Raw.Neg()
	}
	return b.Raw
}

// Delta 一条分录行对存储余额的影响
func Delta(debit, credit decimal.Decimal) decimal.Decimal {
	return debit.Sub(credit)
}

// NaturalDelta 一条分录行在账户自然方向上的影响
func NaturalDelta(n Nature, debit, credit decimal.Decimal) decimal.Decimal {
	if n == DebitNature {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// DebitsNewLedger 期初余额入账时，借方性质账户记借方，否则记贷方
func DebitsNewLedger(h HeadType) bool {
	return NatureOf(h) == DebitNature
}

// Money 金额统一保留两位小数
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
