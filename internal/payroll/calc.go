// Package payroll 缺勤扣薪（LOP）与实发工资计算。
package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"purple-port/backend/internal/attendance"
)

// 日薪按 30 天折算
var daysPerMonth = decimal.NewFromInt(30)

var half = decimal.NewFromFloat(0.5)

// DayStatus 参与 LOP 计算的一天考勤
type DayStatus struct {
	Date   time.Time // 本地零点
	Status attendance.Status
}

// PaidLeave 已批准的带薪假区间（闭区间，本地零点）
type PaidLeave struct {
	Start time.Time
	End   time.Time
}

func (l PaidLeave) covers(day time.Time) bool {
	return !day.Before(l.Start) && !day.After(l.End)
}

// CountLOP 统计扣薪天数：ABSENT 计 1 天（带薪假覆盖的除外），HALF_DAY 计 0.5 天。
// 无考勤记录的日期与 UNPAID 假期本身不计入，以考勤记录为准。
func CountLOP(days []DayStatus, paid []PaidLeave) decimal.Decimal {
	total := decimal.Zero
	for _, d := range days {
		switch d.Status {
		case attendance.StatusAbsent:
			if !coveredByAny(d.Date, paid) {
				total = total.Add(decimal.NewFromInt(1))
			}
		case attendance.StatusHalfDay:
			total = total.Add(half)
		}
	}
	return total
}

func coveredByAny(day time.Time, leaves []PaidLeave) bool {
	for _, l := range leaves {
		if l.covers(day) {
			return true
		}
	}
	return false
}

// Components 工资单组成
type Components struct {
	Basic           decimal.Decimal
	HRA             decimal.Decimal
	Conveyance      decimal.Decimal
	Accommodation   decimal.Decimal
	Allowances      decimal.Decimal // 其他补贴，不参与日薪折算
	Incentives      decimal.Decimal
	AdvanceSalary   decimal.Decimal
	OtherDeductions decimal.Decimal
}

// StandardEarnings 标准薪资 = 基本 + HRA + 交通 + 住宿
func (c Components) StandardEarnings() decimal.Decimal {
	return c.Basic.Add(c.HRA).Add(c.Conveyance).Add(c.Accommodation)
}

// DailyWage 日薪 = 标准薪资 / 30（不取整）
func DailyWage(c Components) decimal.Decimal {
	return c.StandardEarnings().Div(daysPerMonth)
}

// LOPDeduction 扣薪金额 = round(日薪 × 扣薪天数)，四舍五入到整数
func LOPDeduction(c Components, lopDays decimal.Decimal) decimal.Decimal {
	return DailyWage(c).Mul(lopDays).Round(0)
}

// NetPay 实发 = 标准薪资 + 其他补贴 + 奖金 − 扣薪 − 预支 − 其他扣款，不低于 0
func NetPay(c Components, lopDeduction decimal.Decimal) decimal.Decimal {
	gross := c.StandardEarnings().Add(c.Allowances).Add(c.Incentives)
	net := gross.Sub(lopDeduction).Sub(c.AdvanceSalary).Sub(c.OtherDeductions)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net.Round(2)
}

// WorkingDays 应出勤天数 = 当月天数 − 周日 − 非周日的法定假日
func WorkingDays(clock attendance.Clock, month, year int, holidays []time.Time) int {
	start, next := clock.MonthRange(month, year)
	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[clock.FormatDate(h)] = true
	}

	days := 0
	for d := start; d.Before(next); d = d.AddDate(0, 0, 1) {
		if clock.Local(d).Weekday() == time.Sunday {
			continue
		}
		if holidaySet[clock.FormatDate(d)] {
			continue
		}
		days++
	}
	return days
}
