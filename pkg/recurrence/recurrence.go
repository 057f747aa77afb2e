// Package recurrence 将重复规则（频率/间隔/次数/星期过滤）展开为具体的浇水时段。
//
// 日期由 rrule 引擎决定；若指定了民用时刻（TimeOfDay），每个日期再在参考时区内
// 重新组合出开始时间，不受引擎内部夏令时换算的影响。所有输出均为 UTC 瞬时值。
package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency 重复频率
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var frequencies = map[Frequency]rrule.Frequency{
	Daily:   rrule.DAILY,
	Weekly:  rrule.WEEKLY,
	Monthly: rrule.MONTHLY,
	Yearly:  rrule.YEARLY,
}

// 0 = 周一 … 6 = 周日
var weekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

var (
	ErrInvalidFrequency      = errors.New("invalid frequency, choose from: daily, weekly, monthly, yearly")
	ErrInvalidInterval       = errors.New("interval must be a positive integer")
	ErrInvalidCount          = errors.New("count must be a positive integer")
	ErrInvalidDuration       = errors.New("duration must be a positive number of minutes")
	ErrInvalidWeekday        = errors.New("byweekday values must be between 0 (Monday) and 6 (Sunday)")
	ErrWeekdayRequiresWeekly = errors.New("byweekday can only be combined with weekly frequency")
	ErrUnbounded             = errors.New("either count or end_date is required for a recurring schedule")
	ErrUntilBeforeStart      = errors.New("end_date must not be before start_date")
	ErrTooManyOccurrences    = errors.New("recurrence produces too many occurrences")
)

// ParseFrequency 校验并转换频率字符串
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if _, ok := frequencies[f]; !ok {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

// Rule 一条重复规则
type Rule struct {
	Start           time.Time
	Until           *time.Time // 包含边界：开始时间 <= Until 的事件都会产出
	Frequency       Frequency
	Interval        int
	Count           int // 0 表示不按次数截止
	ByWeekday       []int
	DurationMinutes int
	TimeOfDay       *TimeOfDay
}

// Occurrence 一次具体的浇水时段
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Duration 时段长度
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Validate 在任何展开或持久化之前校验规则
func (r Rule) Validate() error {
	if _, ok := frequencies[r.Frequency]; !ok {
		return ErrInvalidFrequency
	}
	if r.Interval <= 0 {
		return ErrInvalidInterval
	}
	if r.Count < 0 {
		return ErrInvalidCount
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	for _, d := range r.ByWeekday {
		if d < 0 || d > 6 {
			return ErrInvalidWeekday
		}
	}
	if len(r.ByWeekday) > 0 && r.Frequency != Weekly {
		return ErrWeekdayRequiresWeekly
	}
	if r.Count == 0 && r.Until == nil {
		return ErrUnbounded
	}
	return nil
}

// Expander 重复规则展开器（无状态，可并发使用）
type Expander struct {
	loc            *time.Location
	maxOccurrences int
}

// NewExpander 创建展开器
// loc 为参考时区；maxOccurrences 限制单条规则产出的事件数
func NewExpander(loc *time.Location, maxOccurrences int) *Expander {
	return &Expander{loc: loc, maxOccurrences: maxOccurrences}
}

// Location 参考时区
func (e *Expander) Location() *time.Location {
	return e.loc
}

// Expand 展开规则，返回按开始时间严格递增的有限序列
func (e *Expander) Expand(rule Rule) ([]Occurrence, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Freq:     frequencies[rule.Frequency],
		Interval: rule.Interval,
		Count:    rule.Count,
	}
	for _, d := range rule.ByWeekday {
		opt.Byweekday = append(opt.Byweekday, weekdays[d])
	}

	if rule.TimeOfDay != nil {
		// 引擎只产出日期：在 UTC 午夜上迭代，避开参考时区的夏令时跳变
		opt.Dtstart = civilDate(rule.Start.In(e.loc))
		if rule.Until != nil {
			opt.Until = civilDate(rule.Until.In(e.loc))
		}
	} else {
		opt.Dtstart = rule.Start.In(e.loc)
		if rule.Until != nil {
			opt.Until = rule.Until.In(e.loc)
		}
	}
	if rule.Until != nil && opt.Until.Before(opt.Dtstart) {
		return nil, ErrUntilBeforeStart
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(rule.DurationMinutes) * time.Minute
	var out []Occurrence
	next := rr.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		start := t
		if rule.TimeOfDay != nil {
			start = rule.TimeOfDay.On(t.Year(), t.Month(), t.Day(), e.loc)
			// 引擎只按日期截止，重新组合后的时刻仍需落在 Until 之内
			if rule.Until != nil && start.After(*rule.Until) {
				break
			}
		}
		if len(out) >= e.maxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		start = start.UTC()
		out = append(out, Occurrence{Start: start, End: start.Add(duration)})
	}

	return out, nil
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
