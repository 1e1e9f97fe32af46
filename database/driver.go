package database

import (
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DriverFunc 根据 DSN 创建 GORM 驱动
type DriverFunc func(dsn string) gorm.Dialector

var drivers sync.Map

func init() {
	RegisterDriver("sqlite", sqlite.Open)
}

// RegisterDriver 注册一个按名称选择的驱动，供配置文件使用
//
//	database.RegisterDriver("mysql", mysql.Open)
func RegisterDriver(name string, open DriverFunc) {
	drivers.Store(name, open)
}

func lookupDriver(name string) (DriverFunc, bool) {
	if name == "" {
		name = "sqlite"
	}
	v, ok := drivers.Load(name)
	if !ok {
		return nil, false
	}
	return v.(DriverFunc), true
}
