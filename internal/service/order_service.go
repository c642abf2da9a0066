package service

import (
	"context"
	"course_platform_backend/internal/model"
	"course_platform_backend/internal/repository"
	"course_platform_backend/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderService 订单事实的维护入口。真正的扣款在外部支付服务，
// 这里只记录 PENDING → PAID / CANCELLED 的状态与发票信息。
type OrderService struct {
	OrderRepo   *repository.OrderRepository
	Entitlement *EntitlementService
	Content     *ContentService
}

func NewOrderService(orderRepo *repository.OrderRepository, entitlement *EntitlementService, content *ContentService) *OrderService {
	return &OrderService{
		OrderRepo:   orderRepo,
		Entitlement: entitlement,
		Content:     content,
	}
}

// CreateOrder 建立待付款订单。已购买返回错误；
// 已有待付款订单时直接返回它（断点续购），避免重复下单。
func (s *OrderService) CreateOrder(ctx context.Context, learnerID uint, courseID uint) (*model.Order, error) {
	course, err := s.Content.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ent, err := s.Entitlement.ResolveForCourse(&learnerID, course)
	if err != nil {
		return nil, err
	}

	switch ent.Tier {
	case TierOwned:
		return nil, util.ErrAlreadyPurchased
	case TierPendingPayment:
		return s.OrderRepo.FindByID(ent.PendingOrderID)
	}

	order := &model.Order{
		OrderNo:  uuid.New().String(),
		UserID:   learnerID,
		CourseID: course.ID,
		Status:   model.OrderPending,
	}
	if err := s.OrderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// PayRequest 完成付款时写入的支付与发票信息
type PayRequest struct {
	PaymentMethod  string `json:"paymentMethod" binding:"required"` // CREDIT, ATM, INSTALLMENT
	InvoiceType    string `json:"invoiceType"`                      // GUI, MOBILE, CITIZEN, DONATION
	InvoiceCarrier string `json:"invoiceCarrier"`
}

// PayOrder 把属于该学习者的待付款订单标记为已付款
func (s *OrderService) PayOrder(learnerID uint, orderID uint, req PayRequest) (*model.Order, error) {
	order, err := s.findOwned(learnerID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.OrderPending {
		return nil, util.ErrOrderNotPending
	}

	order.PaymentMethod = req.PaymentMethod
	order.InvoiceType = req.InvoiceType
	order.InvoiceCarrier = req.InvoiceCarrier
	order.Status = model.OrderPaid

	if err := s.OrderRepo.Save(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) CancelOrder(learnerID uint, orderID uint) (*model.Order, error) {
	order, err := s.findOwned(learnerID, orderID)
	if err != nil {
		return nil, err
	}

	order.Status = model.OrderCancelled
	if err := s.OrderRepo.Save(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(learnerID uint) ([]model.Order, error) {
	return s.OrderRepo.FindByUser(learnerID)
}

func (s *OrderService) findOwned(learnerID uint, orderID uint) (*model.Order, error) {
	order, err := s.OrderRepo.FindByID(orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrOrderNotFound
		}
		return nil, err
	}
	// 安全性检查：订单必须属于该学习者
	if order.UserID != learnerID {
		return nil, util.ErrPermissionDenied
	}
	return order, nil
}
