// Package dao implements the domain repositories on gorm.
package dao

import (
	"fmt"
	"os"
	"time"

	"github.com/baluardo/backup-control-service/internal/model"
	"github.com/baluardo/backup-control-service/pkg/fileurl"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig database connection configuration.
type DatabaseConfig struct {
	Type         string
	Path         string
	UserName     string
	Password     string
	Host         string
	Name         string
	TablePrefix  string
	AutoMigrate  bool
	Charset      string
	ParseTime    bool
	MaxIdleConns int
	MaxOpenConns int
	RunMode      string
}

// Dao bundles the database handle for the repository implementations.
type Dao struct {
	Db     *gorm.DB
	logger *zap.Logger
}

type Option func(*Dao)

func WithLogger(lg *zap.Logger) Option {
	return func(d *Dao) {
		d.logger = lg
	}
}

// New creates a Dao around an open gorm connection.
func New(db *gorm.DB, opts ...Option) *Dao {
	d := &Dao{Db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dao) DB() *gorm.DB {
	return d.Db
}

// NewDBEngine opens the configured database and runs migrations when
// enabled.
func NewDBEngine(c DatabaseConfig) (*gorm.DB, error) {
	dialector := newDialector(c)
	if dialector == nil {
		return nil, fmt.Errorf("unsupported database type %q", c.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}
	if c.RunMode == "debug" {
		db.Config.Logger = logger.Default.LogMode(logger.Info)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Minute * 10)

	if c.AutoMigrate {
		if err := model.AutoMigrateAll(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func newDialector(c DatabaseConfig) gorm.Dialector {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		))
	case "sqlite", "":
		if c.Path != ":memory:" && !fileurl.IsExist(c.Path) {
			_ = fileurl.CreatePath(c.Path, os.ModePerm)
		}
		return sqlite.Open(c.Path)
	}
	return nil
}
