// Package attendance 考勤判定引擎：组织时区换算、班次窗口与出勤状态决策树。
// 本包不依赖存储，所有函数对相同输入给出相同输出。
package attendance

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// Clock 组织本地时间换算（固定 UTC 偏移，不受夏令时影响）
type Clock struct {
	loc *time.Location
}

// NewClock 按 UTC 偏移分钟数创建时钟，例如 IST = 330
func NewClock(offsetMinutes int) Clock {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60))
	return Clock{loc: time.FixedZone(name, offsetMinutes*60)}
}

// Location 组织时区
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Local 转换为组织本地时间
func (c Clock) Local(t time.Time) time.Time {
	return t.In(c.Location())
}

// LocalMidnight 返回 t 所在本地日历日零点对应的 UTC 时刻（考勤记录的日期键）
func (c Clock) LocalMidnight(t time.Time) time.Time {
	l := c.Local(t)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.Location()).UTC()
}

// MinutesOfDay 本地时间的当日分钟数
func (c Clock) MinutesOfDay(t time.Time) int {
	l := c.Local(t)
	return l.Hour()*60 + l.Minute()
}

// Hour 本地小时
func (c Clock) Hour(t time.Time) int {
	return c.Local(t).Hour()
}

// DaysBetween 两个时刻本地日历日之差（b - a）
func (c Clock) DaysBetween(a, b time.Time) int {
	return int(c.LocalMidnight(b).Sub(c.LocalMidnight(a)).Hours() / 24)
}

// ParseDate 解析 YYYY-MM-DD 为本地零点
func (c Clock) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式无效 %q: %w", s, err)
	}
	return d.UTC(), nil
}

// ParseTimestamp 解析打卡时间：RFC3339 或无时区的本地时间 "2006-01-02 15:04:05"
func (c Clock) ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, c.Location()); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("时间戳格式无效 %q", s)
}

// FormatDate 格式化为本地 YYYY-MM-DD
func (c Clock) FormatDate(t time.Time) string {
	return c.Local(t).Format("2006-01-02")
}

// At 返回 date 所在本地日的 HH:MM 时刻，dayOffset 用于跨夜班次
func (c Clock) At(date time.Time, hhmm string, dayOffset int) (time.Time, error) {
	mins, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	base := c.LocalMidnight(date)
	return base.AddDate(0, 0, dayOffset).Add(time.Duration(mins) * time.Minute), nil
}

// MonthRange 返回某月第一天零点与下月第一天零点（本地）
func (c Clock) MonthRange(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, c.Location())
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
