// internal/pkg/database/mysql.go
package database

import (
	"strconv"
	"time"

	sqlmysql "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"petshop/internal/pkg/bootstrap"
)

// OpenMysql 按配置建立 GORM 连接。
// DSN 用官方驱动的 Config 拼出来，避免手写字符串漏参数。
func OpenMysql(cfg *bootstrap.Config) (*gorm.DB, error) {
	mc := sqlmysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Infra.Mysql.Host + ":" + strconv.Itoa(cfg.Infra.Mysql.Port)
	mc.User = cfg.Infra.Mysql.User
	mc.Passwd = cfg.Infra.Mysql.Password
	mc.DBName = cfg.Infra.Mysql.Database
	mc.ParseTime = true
	mc.Loc = time.Local

	db, err := gorm.Open(gormmysql.Open(mc.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
