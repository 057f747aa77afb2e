package recurrence

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func asuncion(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Asuncion")
	if err != nil {
		t.Fatalf("加载时区失败: %v", err)
	}
	return loc
}

func timePtr(t time.Time) *time.Time { return &t }

func TestExpand_WeeklyCountAtLocalTime(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 1, 1, 8, 0, 0, 0, loc),
		Frequency:       Weekly,
		Interval:        1,
		Count:           3,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	if len(occ) != 3 {
		t.Fatalf("期望 3 个事件，实际 %d", len(occ))
	}
	for i, o := range occ {
		local := o.Start.In(loc)
		if local.Hour() != 8 || local.Minute() != 0 {
			t.Errorf("第 %d 个事件期望 08:00，实际 %s", i, local.Format("15:04"))
		}
		if o.Duration() != 30*time.Minute {
			t.Errorf("第 %d 个事件期望 30 分钟，实际 %s", i, o.Duration())
		}
		if o.Start.Location() != time.UTC {
			t.Errorf("第 %d 个事件应以 UTC 返回", i)
		}
		if i > 0 && o.Start.Sub(occ[i-1].Start) != 7*24*time.Hour {
			t.Errorf("第 %d 个事件与上一个间隔 %s，期望一周", i, o.Start.Sub(occ[i-1].Start))
		}
	}
}

func TestExpand_TimeOfDayRebasesDates(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)
	tod := TimeOfDay{Hour: 6, Minute: 30}

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 3, 1, 0, 0, 0, 0, loc),
		Until:           timePtr(time.Date(2024, 3, 5, 23, 59, 59, 0, loc)),
		Frequency:       Daily,
		Interval:        1,
		DurationMinutes: 15,
		TimeOfDay:       &tod,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	if len(occ) != 5 {
		t.Fatalf("期望 5 个事件（含结束日），实际 %d", len(occ))
	}
	for i, o := range occ {
		local := o.Start.In(loc)
		if local.Day() != 1+i {
			t.Errorf("第 %d 个事件日期期望 %d 日，实际 %d 日", i, 1+i, local.Day())
		}
		if local.Hour() != 6 || local.Minute() != 30 {
			t.Errorf("第 %d 个事件期望 06:30，实际 %s", i, local.Format("15:04"))
		}
	}
}

func TestExpand_TimeOfDayAcrossDSTChange(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)
	tod := TimeOfDay{Hour: 8}

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 3, 20, 0, 0, 0, 0, loc),
		Frequency:       Daily,
		Interval:        1,
		Count:           10,
		DurationMinutes: 20,
		TimeOfDay:       &tod,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	for i, o := range occ {
		if h := o.Start.In(loc).Hour(); h != 8 {
			t.Errorf("第 %d 个事件期望本地 8 点，实际 %d 点", i, h)
		}
	}
}

func TestExpand_UntilIsInclusiveUpperBound(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)
	start := time.Date(2024, 5, 1, 7, 0, 0, 0, loc)
	until := time.Date(2024, 5, 10, 7, 0, 0, 0, loc)

	occ, err := e.Expand(Rule{
		Start:           start,
		Until:           &until,
		Frequency:       Daily,
		Interval:        3,
		DurationMinutes: 10,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	// 1, 4, 7, 10 日
	if len(occ) != 4 {
		t.Fatalf("期望 4 个事件，实际 %d", len(occ))
	}
	for _, o := range occ {
		if o.Start.After(until) {
			t.Errorf("事件 %s 超出结束边界 %s", o.Start, until)
		}
	}
	if !occ[3].Start.Equal(until) {
		t.Errorf("最后一个事件应恰好落在结束边界上，实际 %s", occ[3].Start)
	}
}

func TestExpand_TimeOfDayLaterThanUntilClock(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)
	tod := TimeOfDay{Hour: 8}
	until := time.Date(2024, 1, 3, 7, 0, 0, 0, loc)

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		Until:           &until,
		Frequency:       Daily,
		Interval:        1,
		DurationMinutes: 30,
		TimeOfDay:       &tod,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	// 1 日与 2 日的 08:00；3 日 08:00 晚于 07:00 的结束边界
	if len(occ) != 2 {
		t.Fatalf("期望 2 个事件，实际 %d", len(occ))
	}
	for _, o := range occ {
		if o.Start.After(until) {
			t.Errorf("事件 %s 超出结束边界 %s", o.Start.In(loc), until)
		}
	}
}

func TestExpand_UntilBoundDoesNotCountTowardsLimit(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 2)
	tod := TimeOfDay{Hour: 8}
	until := time.Date(2024, 1, 3, 7, 0, 0, 0, loc)

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		Until:           &until,
		Frequency:       Daily,
		Interval:        1,
		DurationMinutes: 30,
		TimeOfDay:       &tod,
	})
	if err != nil {
		t.Fatalf("截止后的日期不应触发上限: %v", err)
	}
	if len(occ) != 2 {
		t.Errorf("期望 2 个事件，实际 %d", len(occ))
	}
}

func TestExpand_ByWeekday(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 100)
	tod := TimeOfDay{Hour: 18}

	// 2024-01-01 为周一
	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, loc),
		Frequency:       Weekly,
		Interval:        1,
		Count:           6,
		ByWeekday:       []int{0, 2, 4},
		DurationMinutes: 30,
		TimeOfDay:       &tod,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Monday, time.Wednesday, time.Friday}
	if len(occ) != len(want) {
		t.Fatalf("期望 %d 个事件，实际 %d", len(want), len(occ))
	}
	for i, o := range occ {
		if got := o.Start.In(loc).Weekday(); got != want[i] {
			t.Errorf("第 %d 个事件期望 %s，实际 %s", i, want[i], got)
		}
	}
}

func TestExpand_MonthlySkipsShortMonths(t *testing.T) {
	e := NewExpander(time.UTC, 100)

	occ, err := e.Expand(Rule{
		Start:           time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
		Frequency:       Monthly,
		Interval:        1,
		Count:           3,
		DurationMinutes: 5,
	})
	if err != nil {
		t.Fatalf("Expand 应成功: %v", err)
	}
	wantMonths := []time.Month{time.January, time.March, time.May}
	for i, o := range occ {
		if o.Start.Month() != wantMonths[i] || o.Start.Day() != 31 {
			t.Errorf("第 %d 个事件期望 %s 31 日，实际 %s", i, wantMonths[i], o.Start.Format("2006-01-02"))
		}
	}
}

func TestExpand_CountProperty(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 1000)
	start := time.Date(2024, 2, 10, 5, 45, 0, 0, loc)

	for _, freq := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		for interval := 1; interval <= 3; interval++ {
			for count := 1; count <= 5; count++ {
				occ, err := e.Expand(Rule{
					Start:           start,
					Frequency:       freq,
					Interval:        interval,
					Count:           count,
					DurationMinutes: 45,
				})
				if err != nil {
					t.Fatalf("%s/%d/%d: Expand 应成功: %v", freq, interval, count, err)
				}
				if len(occ) != count {
					t.Fatalf("%s/%d/%d: 期望 %d 个事件，实际 %d", freq, interval, count, count, len(occ))
				}
				for i, o := range occ {
					if !o.End.After(o.Start) || o.Duration() != 45*time.Minute {
						t.Errorf("%s/%d/%d: 第 %d 个事件时长异常 %s", freq, interval, count, i, o.Duration())
					}
					if i > 0 && !o.Start.After(occ[i-1].Start) {
						t.Errorf("%s/%d/%d: 事件未严格递增", freq, interval, count)
					}
				}
			}
		}
	}
}

func TestExpand_ValidationErrors(t *testing.T) {
	loc := asuncion(t)
	e := NewExpander(loc, 5)
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, loc)
	until := start.AddDate(0, 0, 30)
	before := start.AddDate(0, 0, -1)

	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"无效频率", Rule{Start: start, Frequency: "hourly", Interval: 1, Count: 1, DurationMinutes: 10}, ErrInvalidFrequency},
		{"间隔为0", Rule{Start: start, Frequency: Daily, Interval: 0, Count: 1, DurationMinutes: 10}, ErrInvalidInterval},
		{"间隔为负", Rule{Start: start, Frequency: Daily, Interval: -2, Count: 1, DurationMinutes: 10}, ErrInvalidInterval},
		{"时长为0", Rule{Start: start, Frequency: Daily, Interval: 1, Count: 1, DurationMinutes: 0}, ErrInvalidDuration},
		{"次数为负", Rule{Start: start, Frequency: Daily, Interval: 1, Count: -1, DurationMinutes: 10}, ErrInvalidCount},
		{"星期越界", Rule{Start: start, Frequency: Weekly, Interval: 1, Count: 1, ByWeekday: []int{7}, DurationMinutes: 10}, ErrInvalidWeekday},
		{"星期配合月频率", Rule{Start: start, Frequency: Monthly, Interval: 1, Count: 1, ByWeekday: []int{1}, DurationMinutes: 10}, ErrWeekdayRequiresWeekly},
		{"无边界", Rule{Start: start, Frequency: Daily, Interval: 1, DurationMinutes: 10}, ErrUnbounded},
		{"结束早于开始", Rule{Start: start, Until: &before, Frequency: Daily, Interval: 1, DurationMinutes: 10}, ErrUntilBeforeStart},
		{"超过上限", Rule{Start: start, Until: &until, Frequency: Daily, Interval: 1, DurationMinutes: 10}, ErrTooManyOccurrences},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Expand(tt.rule)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, err)
			}
		})
	}
}

func TestParseFrequency(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly", "yearly"} {
		if _, err := ParseFrequency(s); err != nil {
			t.Errorf("%s 应为有效频率: %v", s, err)
		}
	}
	if _, err := ParseFrequency("Weekly"); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("频率应区分大小写，实际 %v", err)
	}
}
