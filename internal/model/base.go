package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// ── PostgreSQL INTERVAL 自定义类型 ──

// Interval 对应 PostgreSQL INTERVAL 类型，实现 GORM Scanner/Valuer 接口。
// 以 "HH:MM:SS" 文本读写，其他方言下落为 TEXT 列。
type Interval time.Duration

// Duration 转换为 time.Duration
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

// Minutes 向下取整的分钟数
func (i Interval) Minutes() int {
	return int(time.Duration(i) / time.Minute)
}

// String 格式化为 "HH:MM:SS"（小时可超过 24）
func (i Interval) String() string {
	total := int64(time.Duration(i) / time.Second)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, total%3600/60, total%60)
}

// Scan 解析 PostgreSQL 返回的 "[N day[s] ]HH:MM:SS[.ffffff]" 文本。
func (i *Interval) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*i = 0
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case int64:
		*i = Interval(time.Duration(v) * time.Second)
		return nil
	default:
		return fmt.Errorf("Interval.Scan: unsupported type %T", src)
	}

	d, err := parseInterval(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("Interval.Scan: invalid value %q: %w", s, err)
	}
	*i = Interval(d)
	return nil
}

// Value 序列化为 "HH:MM:SS" 文本。
func (i Interval) Value() (driver.Value, error) {
	return i.String(), nil
}

// GormDBDataType 按方言声明列类型
func (Interval) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "interval"
	}
	return "text"
}

func parseInterval(s string) (time.Duration, error) {
	var total time.Duration

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	// 天数部分，如 "1 day 02:00:00"
	if idx := strings.Index(s, " day"); idx >= 0 {
		days, err := strconv.Atoi(strings.TrimSpace(s[:idx]))
		if err != nil {
			return 0, err
		}
		total += time.Duration(days) * 24 * time.Hour
		s = strings.TrimSpace(s[idx+len(" day"):])
		s = strings.TrimSpace(strings.TrimPrefix(s, "s"))
		if s == "" {
			return total, nil
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}

	total += time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	if neg {
		total = -total
	}
	return total, nil
}
