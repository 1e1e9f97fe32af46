package database

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gocrud/ioc/logging"
)

// DB 命名的 GORM 连接，容器关闭时关闭底层连接池
type DB struct {
	*gorm.DB
	name string
}

// Name 返回实例名称
func (db *DB) Name() string { return db.name }

// Close 关闭底层 sql.DB
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrapf(err, "database: %q", db.name)
	}
	return errors.Wrapf(sqlDB.Close(), "database: close %q", db.name)
}

// Open 按配置打开数据库并执行自动迁移
func Open(opts Options, logger logging.Logger) (*DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}
	gormConfig := opts.GormConfig
	if gormConfig == nil {
		gormConfig = &gorm.Config{}
	}
	if gormConfig.Logger == nil {
		gormConfig.Logger = newGormLogger(logger, opts.SlowThreshold)
	}

	gdb, err := gorm.Open(opts.dialector(), gormConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "database: open %q", opts.Name)
	}
	db := &DB{DB: gdb, name: opts.Name}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrapf(err, "database: %q", opts.Name)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	if len(opts.AutoMigrate) > 0 {
		if err := gdb.AutoMigrate(opts.AutoMigrate...); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "database: auto migrate %q", opts.Name)
		}
	}
	return db, nil
}
