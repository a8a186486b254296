package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Org        OrgConfig        `mapstructure:"org"`
	Biometric  BiometricConfig  `mapstructure:"biometric"`
	Accounting AccountingConfig `mapstructure:"accounting"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
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
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
	LoginRateLimit          int           `mapstructure:"login_rate_limit"` // 每分钟同 IP 登录次数上限
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"` // stdout 或文件路径
}

// OrgConfig 组织时区与考勤默认策略
type OrgConfig struct {
	UTCOffsetMinutes       int     `mapstructure:"utc_offset_minutes"`
	DefaultShiftStart      string  `mapstructure:"default_shift_start"`
	DefaultShiftEnd        string  `mapstructure:"default_shift_end"`
	DefaultGraceMinutes    int     `mapstructure:"default_grace_minutes"`
	OvernightCutoffHour    int     `mapstructure:"overnight_cutoff_hour"`
	RegularisationMonthCap int     `mapstructure:"regularisation_month_cap"`
	RegularisedWorkHours   float64 `mapstructure:"regularised_work_hours"`
}

// BiometricConfig 考勤机桥接配置
type BiometricConfig struct {
	BridgeEnabled bool          `mapstructure:"bridge_enabled"`
	BridgeAPIKey  string        `mapstructure:"bridge_api_key"`
	OnlineWindow  time.Duration `mapstructure:"online_window"`
}

// AccountingConfig 系统账户名称
type AccountingConfig struct {
	AdjustmentLedger    string `mapstructure:"adjustment_ledger"`
	SalaryExpenseLedger string `mapstructure:"salary_expense_ledger"`
	SalaryPayableLedger string `mapstructure:"salary_payable_ledger"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > .env > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 2<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "purple_port")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Kolkata")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)  // 60分钟
	v.SetDefault("db.conn_max_idle_time", 30) // 30分钟

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl_default", "24h")
	v.SetDefault("auth.refresh_token_ttl_remember_me", "168h")
	v.SetDefault("auth.login_rate_limit", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("org.utc_offset_minutes", 330)
	v.SetDefault("org.default_shift_start", "09:00")
	v.SetDefault("org.default_shift_end", "18:00")
	v.SetDefault("org.default_grace_minutes", 15)
	v.SetDefault("org.overnight_cutoff_hour", 7)
	v.SetDefault("org.regularisation_month_cap", 3)
	v.SetDefault("org.regularised_work_hours", 8.5)

	v.SetDefault("biometric.bridge_enabled", false)
	v.SetDefault("biometric.bridge_api_key", "")
	v.SetDefault("biometric.online_window", "24h")

	v.SetDefault("accounting.adjustment_ledger", "Opening Balance Adjustment")
	v.SetDefault("accounting.salary_expense_ledger", "Salary & Wages")
	v.SetDefault("accounting.salary_payable_ledger", "Salary Payable")

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
	v.SetEnvPrefix("PURPLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Org.UTCOffsetMinutes < -720 || c.Org.UTCOffsetMinutes > 840 {
		return fmt.Errorf("配置校验失败: org.utc_offset_minutes 超出范围")
	}
	if c.Org.OvernightCutoffHour < 0 || c.Org.OvernightCutoffHour > 23 {
		return fmt.Errorf("配置校验失败: org.overnight_cutoff_hour 必须在 0-23 之间")
	}
	if c.Biometric.BridgeEnabled && len(c.Biometric.BridgeAPIKey) < 16 {
		return fmt.Errorf("配置校验失败: 启用考勤桥接时 biometric.bridge_api_key 长度不能少于 16 字符")
	}
	return nil
}
