package attendance

import (
	"fmt"
	"strconv"
	"strings"
)

// Shift 判定所用的班次窗口（已解析出宽限分钟）
type Shift struct {
	ID           string
	Name         string
	StartTime    string // HH:MM
	EndTime      string // HH:MM
	GraceMinutes int
	IsDefault    bool
}

// Window 以当日分钟数表示的班次起止
type Window struct {
	Start int
	End   int
}

// ParseClock 解析 HH:MM 为当日分钟数
func ParseClock(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("时间格式无效 %q，应为 HH:MM", hhmm)
	}
	h, errH := strconv.Atoi(hhmm[:2])
	m, errM := strconv.Atoi(hhmm[3:])
	if errH != nil || errM != nil {
		return 0, fmt.Errorf("时间格式无效 %q，应为 HH:MM", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("时间超出范围 %q", hhmm)
	}
	return h*60 + m, nil
}

// Window 解析班次起止
func (s Shift) Window() (Window, error) {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return Window{}, err
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

// Snapshot 记录到考勤上的班次快照 "HH:MM-HH:MM"
func (s Shift) Snapshot() string {
	return s.StartTime + "-" + s.EndTime
}

// NoBreak 名称含 "NO BREAK" 的班次不扣午休
func (s Shift) NoBreak() bool {
	return strings.Contains(strings.ToUpper(s.Name), "NO BREAK")
}

// Overnight 结束时间小于开始时间即为跨夜班次
func (w Window) Overnight() bool {
	return w.End < w.Start
}

// DurationHours 班次时长（小时）
func (w Window) DurationHours() float64 {
	mins := w.End - w.Start
	if w.Overnight() {
		mins += minutesPerDay
	}
	return float64(mins) / 60
}
