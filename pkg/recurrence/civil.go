package recurrence

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeOfDay = errors.New("time must be formatted as HH:MM or HH:MM:SS")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD, YYYY-MM-DDTHH:MM[:SS] or RFC3339")
)

// TimeOfDay 参考时区下的民用时刻
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, ErrInvalidTimeOfDay
}

// On 在 loc 中将日期与该时刻组合
// 夏令时跳过的时刻由 time.Date 规范化到跳变之后
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, t.Hour, t.Minute, t.Second, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// 不带偏移量的格式按参考时区的民用时间解释
var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseCivil 解析前端传入的日期/时间
// 返回值 dateOnly 表示输入只有日期部分（此时返回该日在 loc 中的零点）
// 秒以下的部分被截断，与 RFC3339 展示格式保持一致
func ParseCivil(s string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Truncate(time.Second), false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, true, nil
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Truncate(time.Second), false, nil
		}
	}
	return time.Time{}, false, ErrInvalidDate
}
