package database

import (
	"course_platform_backend/internal/config"
	"course_platform_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedCourses(db)

	return db, nil
}

// Migrate 执行全部模型迁移，测试里也会对 sqlite 复用
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Order{},
		&model.UnitProgress{},
		&model.UserLevel{},
	)
}

// 默认课程数据：空库时插入一门可试听课程，方便本地起服务后直接联调
func seedCourses(db *gorm.DB) {
	var count int64
	db.Model(&model.Course{}).Count(&count)
	if count > 0 {
		return
	}

	syllabus := `[
  {"id":"ch1","title":"起步","units":[
    {"id":"u1","title":"课程介绍","videoId":"intro","exp":50},
    {"id":"u2","title":"环境搭建","videoId":"setup","exp":100}
  ]},
  {"id":"ch2","title":"进阶","units":[
    {"id":"u3","title":"核心概念","videoId":"core","exp":150},
    {"id":"u4","title":"实战演练","exp":200}
  ]}
]`

	course := &model.Course{
		Title:         "全栈开发入门",
		Author:        "平台教研组",
		Description:   "从零开始的全栈开发课程",
		Price:         2990,
		OriginalPrice: 4990,
		Tags:          "入门,全栈",
		Recommended:   true,
		HasTrial:      true,
		SyllabusJSON:  syllabus,
	}
	db.Create(course)
}
