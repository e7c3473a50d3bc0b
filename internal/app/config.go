// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/issue-note-service/internal/dao"
	"github.com/haierkeys/issue-note-service/internal/delivery"
	"github.com/haierkeys/issue-note-service/internal/events"
	"github.com/haierkeys/issue-note-service/internal/membership"
	"github.com/haierkeys/issue-note-service/pkg/convert"
	"github.com/haierkeys/issue-note-service/pkg/logger"
	"github.com/haierkeys/issue-note-service/pkg/util"
	"github.com/haierkeys/issue-note-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ISSUE_NOTE_"

// AppConfig 应用配置
type AppConfig struct {
	File         string                  `yaml:"-"` // 配置文件路径，不序列化
	Server       ServerConfig            `yaml:"server"`
	Log          LogConfig               `yaml:"log"`
	Database     DatabaseConfig          `yaml:"database"`
	App          AppSettings             `yaml:"app"`
	Security     SecurityConfig          `yaml:"security"`
	Tracer       TracerConfig            `yaml:"tracer"`
	Notification NotificationConfig      `yaml:"notification"`
	Redis        membership.RedisConfig  `yaml:"redis"`
	Membership   membership.StaticConfig `yaml:"membership"`
	Kafka        events.KafkaConfig      `yaml:"kafka"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式 debug/release
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics / pprof），为空不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
	// PrivateAuthToken 私有路由访问令牌，为空不校验
	PrivateAuthToken string `yaml:"private-auth-token"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"issue-note-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"30d"` // 支持格式：7d（天）、24h（小时）、30m（分钟）
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type 数据库类型 sqlite/mysql/postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path SQLite 数据库文件路径
	Path     string `yaml:"path" default:"storage/database/db.sqlite3"`
	UserName string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl-mode" default:"disable"`
	// TablePrefix 表前缀
	TablePrefix string `yaml:"table-prefix"`
	Charset     string `yaml:"charset" default:"utf8mb4"`
	ParseTime   bool   `yaml:"parse-time" default:"true"`
	// MaxIdleConns 最大闲置连接数
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
	// ConnMaxIdleTime 空闲连接最大生命周期
	ConnMaxIdleTime string `yaml:"conn-max-idle-time" default:"10m"`
	// Replicas 只读副本 DSN
	Replicas []string `yaml:"replicas"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// RateLimitPerSecond 每个接口每秒令牌数，0 关闭限流
	RateLimitPerSecond int `yaml:"rate-limit-per-second" default:"50"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"256"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪 ID
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
	// JaegerAgent Jaeger agent 地址（host:port），为空不上报
	JaegerAgent string `yaml:"jaeger-agent"`
	// ServiceName 上报的服务名
	ServiceName string `yaml:"service-name" default:"issue-note-service"`
}

// NotificationConfig 截止提醒配置
type NotificationConfig struct {
	// SweepCron 扫描周期（cron 表达式），"-" 关闭
	SweepCron string `yaml:"sweep-cron" default:"@hourly"`
	// SweepStartupRun 启动时立即扫描一次
	SweepStartupRun bool `yaml:"sweep-startup-run" default:"false"`
	// MaxAttempts 最大投递次数，0 表示不限
	MaxAttempts int `yaml:"max-attempts" default:"5"`
	// DueWindowHours 距截止时间多少小时内提醒
	DueWindowHours float64 `yaml:"due-window-hours" default:"24"`
	// ShareConcurrency 批量分享并发数
	ShareConcurrency int `yaml:"share-concurrency" default:"8"`
	// Channels 投递渠道
	Channels delivery.Config `yaml:"channels"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	// .env 只补充未设置的环境变量，文件不存在时忽略
	_ = godotenv.Load(filepath.Join(filepath.Dir(realpath), ".env"), ".env")

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	c.applyEnv(os.LookupEnv)

	return c, realpath, nil
}

// applyEnv 使用 ISSUE_NOTE_* 环境变量覆盖密钥、连接串与提醒开关
func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("AUTH_TOKEN_KEY", &c.Security.AuthTokenKey)
	str("DATABASE_TYPE", &c.Database.Type)
	str("DATABASE_PATH", &c.Database.Path)
	str("DATABASE_HOST", &c.Database.Host)
	str("DATABASE_NAME", &c.Database.Name)
	str("DATABASE_USERNAME", &c.Database.UserName)
	str("DATABASE_PASSWORD", &c.Database.Password)
	str("REDIS_URL", &c.Redis.URL)
	str("SMTP_PASSWORD", &c.Notification.Channels.Email.Password)
	str("WEBHOOK_URL", &c.Notification.Channels.Webhook.URL)
	str("JAEGER_AGENT", &c.Tracer.JaegerAgent)
	str("SWEEP_CRON", &c.Notification.SweepCron)

	// 无法解析的值保持原配置
	if v, ok := lookup(EnvPrefix + "SWEEP_STARTUP_RUN"); ok && v != "" {
		c.Notification.SweepStartupRun = convert.StrTo(v).MustBool(c.Notification.SweepStartupRun)
	}
	if v, ok := lookup(EnvPrefix + "MAX_ATTEMPTS"); ok && v != "" {
		if n, err := convert.StrTo(v).Int(); err == nil && n >= 0 {
			c.Notification.MaxAttempts = n
		}
	}

	if v, ok := lookup(EnvPrefix + "KAFKA_BROKERS"); ok && v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
		c.Kafka.Enable = len(brokers) > 0
	}
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		Production: c.Log.Production,
	}
}

// GetDatabaseConfig 获取 DAO 使用的数据库配置
func (c *AppConfig) GetDatabaseConfig() dao.DatabaseConfig {
	return dao.DatabaseConfig{
		Type:            c.Database.Type,
		Path:            c.Database.Path,
		UserName:        c.Database.UserName,
		Password:        c.Database.Password,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		Name:            c.Database.Name,
		SSLMode:         c.Database.SSLMode,
		TablePrefix:     c.Database.TablePrefix,
		Charset:         c.Database.Charset,
		ParseTime:       c.Database.ParseTime,
		MaxIdleConns:    c.Database.MaxIdleConns,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.Database.ConnMaxIdleTime,
		Replicas:        c.Database.Replicas,
		Tracing:         c.Tracer.JaegerAgent != "",
		RunMode:         c.Server.RunMode,
	}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 30 * 24 * time.Hour
}
