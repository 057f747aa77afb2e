package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // 树莓派精简系统上可能缺少 zoneinfo

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	GPIO     GPIOConfig     `mapstructure:"gpio"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port int        `mapstructure:"port"`
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大生命周期（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
// 会话时区固定为 UTC，所有时间以 UTC 瞬时值存储
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis 配置（仅用于开关接口限流）
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	ToggleLimit  int           `mapstructure:"toggle_limit"`
	ToggleWindow time.Duration `mapstructure:"toggle_window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // 为空时只输出到 stderr
}

// ScheduleConfig 浇水计划配置
type ScheduleConfig struct {
	Timezone       string `mapstructure:"timezone"`        // 参考时区，解析/展示民用时间
	LookbackMonths int    `mapstructure:"lookback_months"` // 默认列表回看月数
	MaxOccurrences int    `mapstructure:"max_occurrences"` // 单次展开的最大事件数
}

// Location 加载参考时区
func (c *ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("无效的时区 %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// GPIOConfig 继电器驱动配置
type GPIOConfig struct {
	Driver    string `mapstructure:"driver"`     // noop | raspi
	ActiveLow bool   `mapstructure:"active_low"` // 低电平触发的继电器模块
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "watering")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.toggle_limit", 10)
	v.SetDefault("redis.toggle_window", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("schedule.timezone", "America/Asuncion")
	v.SetDefault("schedule.lookback_months", 1)
	v.SetDefault("schedule.max_occurrences", 1000)

	v.SetDefault("gpio.driver", "noop")
	v.SetDefault("gpio.active_low", false)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("WATERING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 兼容部署脚本中沿用的 POSTGRES_* 变量
	for key, env := range map[string]string{
		"db.host":     "POSTGRES_HOST",
		"db.port":     "POSTGRES_PORT",
		"db.user":     "POSTGRES_USER",
		"db.password": "POSTGRES_PASSWORD",
		"db.name":     "POSTGRES_DB",
	} {
		if err := v.BindEnv(key, "WATERING_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("绑定环境变量失败: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Schedule.LookbackMonths <= 0 {
		return fmt.Errorf("配置校验失败: schedule.lookback_months 必须为正数")
	}
	if c.Schedule.MaxOccurrences <= 0 {
		return fmt.Errorf("配置校验失败: schedule.max_occurrences 必须为正数")
	}
	switch c.GPIO.Driver {
	case "noop", "raspi":
	default:
		return fmt.Errorf("配置校验失败: gpio.driver 仅支持 noop 或 raspi，当前为 %q", c.GPIO.Driver)
	}
	return nil
}
