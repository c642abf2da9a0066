package repository

import (
	"course_platform_backend/internal/model"

	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) Create(order *model.Order) error {
	return r.DB.Create(order).Error
}

func (r *OrderRepository) Save(order *model.Order) error {
	return r.DB.Save(order).Error
}

func (r *OrderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	err := r.DB.First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserAndCourse 该学习者在该课程下的全部订单，新的在前
func (r *OrderRepository) FindByUserAndCourse(userID, courseID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) FindByUser(userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := r.DB.Preload("Course").Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) FindPending(userID, courseID uint) (*model.Order, error) {
	var order model.Order
	err := r.DB.Where("user_id = ? AND course_id = ? AND status = ?",
		userID, courseID, model.OrderPending).
		Order("created_at DESC, id DESC").First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
