package dao

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/model"
	"github.com/haierkeys/issue-note-service/pkg/util"

	"github.com/glebarez/sqlite"
	"github.com/haierkeys/gormTracing"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Type            string   // sqlite / mysql / postgres
	Path            string   // sqlite 文件路径
	UserName        string   // 用户名
	Password        string   // 密码
	Host            string   // mysql: host:port；postgres: host
	Port            int      // postgres 端口
	Name            string   // 数据库名
	SSLMode         string   // postgres sslmode
	TablePrefix     string   // 表前缀
	Charset         string   // mysql 字符集
	ParseTime       bool     // mysql parseTime
	MaxIdleConns    int      // 最大空闲连接
	MaxOpenConns    int      // 最大连接数
	ConnMaxLifetime string   // 连接最大生存时间，支持 10m / 1h / 1d
	ConnMaxIdleTime string   // 连接最大空闲时间
	Replicas        []string // 只读副本 DSN，与 Type 相同的驱动
	Tracing         bool     // 是否启用 opentracing 插件
	RunMode         string   // debug 时输出 SQL
}

// Dao 数据访问对象，持有数据库连接
type Dao struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New 创建 Dao
func New(db *gorm.DB, lg *zap.Logger) *Dao {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Dao{db: db, logger: lg}
}

// DB 返回底层连接
func (d *Dao) DB() *gorm.DB {
	return d.db
}

// WithContext 返回绑定 ctx 的会话
func (d *Dao) WithContext(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// Ping 检查数据库连通性
func (d *Dao) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// NewDBEngineWithConfig 创建数据库连接（使用注入的配置）
func NewDBEngineWithConfig(c DatabaseConfig, lg *zap.Logger) (*gorm.DB, error) {
	dialector, err := openDialector(c.Type, dsn(c))
	if err != nil {
		return nil, err
	}
	if c.Type == "" || c.Type == "sqlite" {
		if err := ensureSqliteDir(c.Path); err != nil {
			return nil, err
		}
	}

	logLevel := logger.Silent
	if c.RunMode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix, // 表名前缀
			SingularTable: true,          // 使用单数表名
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gorm.Open")
	}

	if len(c.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(c.Replicas))
		for _, r := range c.Replicas {
			rd, err := openDialector(c.Type, r)
			if err != nil {
				return nil, err
			}
			replicas = append(replicas, rd)
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, pkgerrors.Wrap(err, "dbresolver")
		}
		if lg != nil {
			lg.Info("database read replicas registered", zap.Int("count", len(replicas)))
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	if d, err := util.ParseDuration(c.ConnMaxLifetime); err == nil && d > 0 {
		sqlDB.SetConnMaxLifetime(d)
	} else {
		sqlDB.SetConnMaxLifetime(10 * time.Minute)
	}
	if d, err := util.ParseDuration(c.ConnMaxIdleTime); err == nil && d > 0 {
		sqlDB.SetConnMaxIdleTime(d)
	}

	if c.Tracing {
		if err := db.Use(&gormTracing.OpentracingPlugin{}); err != nil && lg != nil {
			lg.Warn("gorm tracing plugin not registered", zap.Error(err))
		}
	}

	return db, nil
}

// EnsureSchema 幂等建表，进程启动时执行一次
func EnsureSchema(db *gorm.DB) error {
	if err := model.AutoMigrate(db, ""); err != nil {
		return pkgerrors.Wrap(err, "dao.EnsureSchema")
	}
	return nil
}

func dsn(c DatabaseConfig) string {
	switch c.Type {
	case "mysql":
		charset := c.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName, c.Password, c.Host, c.Name, charset, c.ParseTime)
	case "postgres":
		port := c.Port
		if port == 0 {
			port = 5432
		}
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			c.Host, c.UserName, c.Password, c.Name, port, sslMode)
	default:
		return c.Path
	}
}

func openDialector(dbType, dsn string) (gorm.Dialector, error) {
	switch dbType {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

func ensureSqliteDir(path string) error {
	if path == "" || path == ":memory:" || (len(path) > 5 && path[:5] == "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0754)
}

// notFound 将 gorm.ErrRecordNotFound 转为 domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
