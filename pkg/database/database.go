package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/thread-graph/config"
	"github.com/d60-Lab/thread-graph/internal/model"
)

// InitDB 按配置打开数据库并迁移表结构。
// TranslateError 让底层唯一键冲突统一转成 gorm.ErrDuplicatedKey，
// 关注边/点赞的并发唯一性依赖该约束（见 follow/like 的复合唯一索引）。
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate 迁移全部模型
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Settings{},
		&model.Notification{},
		&model.Thread{},
		&model.Like{},
		&model.Reply{},
		&model.Flag{},
	)
}
