package database

import (
	"fitcoach_backend/internal/config"
	"fitcoach_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过自动迁移，需通过 -migrate 显式触发
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// Migrate 执行表结构迁移并填充默认里程碑目录
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.WorkoutSession{},
		&model.PointTransaction{},
		&model.Milestone{},
		&model.UserMilestone{},
	)
	if err != nil {
		return err
	}

	// 默认的里程碑目录（仅在空表时插入）
	var count int64
	db.Model(&model.Milestone{}).Count(&count)
	if count == 0 {
		defaultMilestones := []model.Milestone{
			{Name: "初次启程", Icon: "rocket", TargetPoints: 100, IsActive: true},
			{Name: "渐入佳境", Icon: "flame", TargetPoints: 500, IsActive: true},
			{Name: "千分达人", Icon: "medal", TargetPoints: 1000, IsActive: true},
			{Name: "Iron Will", Icon: "trophy", TargetPoints: 5000, IsActive: true},
			{Name: "Hall of Fame", Icon: "crown", TargetPoints: 10000, IsActive: true},
		}
		for _, m := range defaultMilestones {
			db.Create(&m)
		}
	}

	return nil
}
