package repository

import (
	"course_platform_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserAndCourse(userID, courseID uint) ([]model.UnitProgress, error) {
	var records []model.UnitProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("unit_id").Find(&records).Error
	return records, err
}

func (r *ProgressRepository) FindByKey(userID, courseID uint, unitID string) (*model.UnitProgress, error) {
	var record model.UnitProgress
	err := r.DB.Where("user_id = ? AND course_id = ? AND unit_id = ?",
		userID, courseID, unitID).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save 写回合并后的记录；新记录走 Create。
// 调用方持有按 (user, unit) 的互斥锁，这里不用再做冲突处理。
func (r *ProgressRepository) Save(record *model.UnitProgress) error {
	return r.DB.Save(record).Error
}

// CountCompleted 统计某学习者在课程内完成的单元数（概览用）
func (r *ProgressRepository) CountCompleted(userID, courseID uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.UnitProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&n).Error
	return n, err
}
