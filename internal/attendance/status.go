package attendance

import (
	"math"
	"time"
)

// Status 考勤状态
type Status string

const (
	StatusPresent     Status = "PRESENT"
	StatusHalfDay     Status = "HALF_DAY"
	StatusAbsent      Status = "ABSENT"
	StatusLeave       Status = "LEAVE"
	StatusRegularized Status = "REGULARIZED"
)

// Reason 判定命中的分支
type Reason string

const (
	ReasonLateArrival    Reason = "late arrival"
	ReasonEarlyDeparture Reason = "early departure"
	ReasonSinglePunch    Reason = "single punch"
	ReasonWorkHours      Reason = "work hours"
)

// 判定口径
const (
	CriteriaGraceTime      = "GRACE_TIME"
	CriteriaRegularization = "REGULARIZATION"
)

const (
	halfDayThreshold        = 4.0
	noBreakFullDayThreshold = 7.0
	fullDayThreshold        = 7.75
	shortShiftHours         = 7.0
)

// Result 判定结果
type Result struct {
	Status    Status
	Reason    Reason
	Criteria  string
	WorkHours float64
}

// Engine 出勤状态判定
type Engine struct {
	clock Clock
}

// NewEngine 创建判定引擎
func NewEngine(clock Clock) *Engine {
	return &Engine{clock: clock}
}

// Clock 引擎使用的组织时钟
func (e *Engine) Clock() Clock {
	return e.clock
}

// ComputeStatus 按决策树计算出勤状态，先命中者生效：
//  1. 签到晚于 开始+宽限 → HALF_DAY
//  2. 签退早于班次结束 → HALF_DAY
//  3. 未签退或签退等于签到 → 历史日 HALF_DAY，当日 PRESENT（临时）
//  4. 按工时阈值：< 4h ABSENT，< 满勤阈值 HALF_DAY，否则 PRESENT
func (e *Engine) ComputeStatus(shift Shift, checkIn time.Time, checkOut *time.Time, isPastDay bool) (Result, error) {
	w, err := shift.Window()
	if err != nil {
		return Result{}, err
	}

	res := Result{Criteria: CriteriaGraceTime}
	if checkOut != nil && checkOut.After(checkIn) {
		res.WorkHours = roundHours(checkOut.Sub(checkIn).Hours())
	}

	if e.IsLate(w, shift.GraceMinutes, checkIn) {
		res.Status, res.Reason = StatusHalfDay, ReasonLateArrival
		return res, nil
	}

	if checkOut != nil && e.IsEarlyDeparture(w, checkIn, *checkOut) {
		res.Status, res.Reason = StatusHalfDay, ReasonEarlyDeparture
		return res, nil
	}

	if checkOut == nil || checkOut.Equal(checkIn) {
		res.Reason = ReasonSinglePunch
		if isPastDay {
			res.Status = StatusHalfDay
		} else {
			res.Status = StatusPresent
		}
		return res, nil
	}

	res.Reason = ReasonWorkHours
	switch hours := checkOut.Sub(checkIn).Hours(); {
	case hours < halfDayThreshold:
		res.Status = StatusAbsent
	case hours < FullDayThreshold(shift, w):
		res.Status = StatusHalfDay
	default:
		res.Status = StatusPresent
	}
	return res, nil
}

// FullDayThreshold 满勤工时阈值
func FullDayThreshold(shift Shift, w Window) float64 {
	duration := w.DurationHours()
	if duration < shortShiftHours {
		return math.Max(halfDayThreshold, duration-0.25)
	}
	if shift.NoBreak() {
		return noBreakFullDayThreshold
	}
	return fullDayThreshold
}

// IsLate 签到是否晚于 开始+宽限。
// 跨夜班次中，不晚于下班时刻的签到视为次日凌晨到岗。
func (e *Engine) IsLate(w Window, graceMinutes int, checkIn time.Time) bool {
	return e.arrivalMinutes(w, checkIn) > w.Start+graceMinutes
}

// IsEarlyDeparture 签退是否早于班次结束。
// 分钟数以签到所属班次日的零点为基准，跨日签退累加 1440。
func (e *Engine) IsEarlyDeparture(w Window, checkIn, checkOut time.Time) bool {
	end := w.End
	if w.Overnight() {
		end += minutesPerDay
	}
	return e.departureMinutes(w, checkIn, checkOut) < end
}

func (e *Engine) arrivalMinutes(w Window, checkIn time.Time) int {
	m := e.clock.MinutesOfDay(checkIn)
	if w.Overnight() && m <= w.End {
		m += minutesPerDay
	}
	return m
}

func (e *Engine) departureMinutes(w Window, checkIn, checkOut time.Time) int {
	m := e.clock.MinutesOfDay(checkOut) + e.clock.DaysBetween(checkIn, checkOut)*minutesPerDay
	if w.Overnight() && e.clock.MinutesOfDay(checkIn) <= w.End {
		// 签到在凌晨，班次日为前一天
		m += minutesPerDay
	}
	return m
}

// WorkHours 两次打卡间工时（小时，两位小数）
func WorkHours(checkIn time.Time, checkOut *time.Time) float64 {
	if checkOut == nil || !checkOut.After(checkIn) {
		return 0
	}
	return roundHours(checkOut.Sub(checkIn).Hours())
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
