package service

import (
	"fmt"
	"path/filepath"
	"testing"

	"course_platform_backend/internal/config"
	"course_platform_backend/internal/model"
	"course_platform_backend/internal/repository"
	"course_platform_backend/pkg/database"
	"course_platform_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	courses     *repository.CourseRepository
	orders      *repository.OrderRepository
	progress    *ProgressService
	delivery    *DeliveryService
	entitlement *EntitlementService
	order       *OrderService
	content     *ContentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{}
	cfg.Storage.Type = "local"
	cfg.Storage.LocalPath = t.TempDir()
	config.ApplyEngineDefaults(cfg)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	levelRepo := repository.NewUserLevelRepository(db)

	storage := NewStorageService(cfg)
	content := NewContentService(courseRepo, storage, cfg, nil)
	entitlement := NewEntitlementService(orderRepo, courseRepo)

	locks := NewKeyedMutex()
	progress := NewProgressService(progressRepo, content, entitlement, locks, cfg)
	delivery := NewDeliveryService(progressRepo, levelRepo, content, entitlement, locks, cfg, db)
	order := NewOrderService(orderRepo, entitlement, content)

	return &testEnv{
		db:          db,
		cfg:         cfg,
		users:       userRepo,
		courses:     courseRepo,
		orders:      orderRepo,
		progress:    progress,
		delivery:    delivery,
		entitlement: entitlement,
		order:       order,
		content:     content,
	}
}

const testSyllabus = `[
  {"id":"ch1","title":"起步","units":[
    {"id":"u1","title":"介绍","videoId":"v1","exp":50},
    {"id":"u2","title":"安装","videoId":"v2"}
  ]},
  {"id":"ch2","title":"进阶","units":[
    {"id":"u3","title":"核心","videoId":"v3","exp":150},
    {"id":"u4","title":"实战"}
  ]}
]`

func (e *testEnv) createCourse(t *testing.T, hasTrial bool) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:        "测试课程",
		HasTrial:     hasTrial,
		SyllabusJSON: testSyllabus,
	}
	if err := e.courses.Create(course); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func (e *testEnv) createUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "学习者", Email: email, Password: "hashed", Role: model.Student}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) purchase(t *testing.T, userID, courseID uint) *model.Order {
	t.Helper()
	order := &model.Order{
		OrderNo:  fmt.Sprintf("test-order-%d-%d", userID, courseID),
		UserID:   userID,
		CourseID: courseID,
		Status:   model.OrderPaid,
	}
	if err := e.orders.Create(order); err != nil {
		t.Fatalf("create paid order: %v", err)
	}
	return order
}
