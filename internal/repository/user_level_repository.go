package repository

import (
	"course_platform_backend/internal/model"

	"gorm.io/gorm"
)

type UserLevelRepository struct {
	DB *gorm.DB
}

func NewUserLevelRepository(db *gorm.DB) *UserLevelRepository {
	return &UserLevelRepository{DB: db}
}

// FindOrCreate 取学习者等级，不存在时按注入的初始门槛建 Lv1 记录
func (r *UserLevelRepository) FindOrCreate(userID uint, baseThreshold int) (*model.UserLevel, error) {
	var level model.UserLevel
	err := r.DB.Where("user_id = ?", userID).First(&level).Error
	if err == nil {
		return &level, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	level = model.UserLevel{
		UserID:             userID,
		Level:              1,
		CurrentExp:         0,
		NextLevelThreshold: baseThreshold,
	}
	if err := r.DB.Create(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *UserLevelRepository) Save(level *model.UserLevel) error {
	return r.DB.Save(level).Error
}

// FindTop 按等级与当前经验排序的排行榜
func (r *UserLevelRepository) FindTop(limit int) ([]model.UserLevel, error) {
	var levels []model.UserLevel
	err := r.DB.Order("level DESC, current_exp DESC").Limit(limit).Find(&levels).Error
	return levels, err
}
