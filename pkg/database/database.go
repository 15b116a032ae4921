package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"FluxTube/internal/config"
	"FluxTube/internal/model"

	"github.com/go-sql-driver/mysql"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open 根据配置打开数据库：生产用MySQL，本地调试可以切到SQLite
// TranslateError打开后，两种驱动的唯一键冲突都会被翻译成gorm.ErrDuplicatedKey
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}

	switch cfg.Driver {
	case "sqlite":
		sep := "?"
		if strings.Contains(cfg.SQLite.Path, "?") {
			sep = "&"
		}
		return gorm.Open(sqlite.Open(cfg.SQLite.Path+sep+"_busy_timeout=5000"), gormCfg)
	case "mysql", "":
		db, err := gorm.Open(gorm_mysql.Open(MySQLDSN(cfg.MySQL)), gormCfg)
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
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// MySQLDSN 用驱动自带的Config拼DSN，避免手写字符串时密码里的特殊字符出问题
func MySQLDSN(c config.MySQLConfig) string {
	dsn := mysql.NewConfig()
	dsn.User = c.User
	dsn.Passwd = c.Password
	dsn.Net = "tcp"
	dsn.Addr = c.Host + ":" + strconv.Itoa(c.Port)
	dsn.DBName = c.Name
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// Migrate 没有这个表就创建，没有属性列则创建列；不会主动删除和修改
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Video{}, &model.Vote{}, &model.Comment{}, &model.Subscription{})
}
