package service

import (
	"course_platform_backend/internal/model"
	"course_platform_backend/internal/repository"
	"course_platform_backend/internal/util"

	"gorm.io/gorm"
)

// AccessTier 学习者对一门课程的访问层级，取代散落各处的
// isPurchased/isTrialMode/isPending 布尔组合
type AccessTier string

const (
	TierOwned          AccessTier = "owned"           // 有生效的已付款订单
	TierPendingPayment AccessTier = "pending_payment" // 有待付款订单，应续走原付款流程
	TierTrialEligible  AccessTier = "trial_eligible"  // 无订单但课程开放试听
	TierNoAccess       AccessTier = "no_access"
)

// Entitlement 权限判定结果。PendingOrderID 仅在 TierPendingPayment 时有值，
// 让调用方恢复既有订单而不是重复下单。
type Entitlement struct {
	Tier           AccessTier `json:"tier"`
	PendingOrderID uint       `json:"pendingOrderId,omitempty"`
}

func (e Entitlement) Owned() bool {
	return e.Tier == TierOwned
}

// statusRank 生效订单的优先级：已付款 > 待付款 > 已取消
func statusRank(s model.OrderStatus) int {
	switch s {
	case model.OrderPaid:
		return 3
	case model.OrderPending:
		return 2
	case model.OrderCancelled:
		return 1
	}
	return 0
}

// EffectiveOrder 从同一 (学习者, 课程) 的多条订单中选出决定权限的那条：
// 状态优先级高者胜，同状态取最新
func EffectiveOrder(orders []model.Order) *model.Order {
	var best *model.Order
	for i := range orders {
		o := &orders[i]
		if best == nil {
			best = o
			continue
		}
		if statusRank(o.Status) > statusRank(best.Status) {
			best = o
			continue
		}
		if statusRank(o.Status) == statusRank(best.Status) {
			if o.CreatedAt.After(best.CreatedAt) ||
				(o.CreatedAt.Equal(best.CreatedAt) && o.ID > best.ID) {
				best = o
			}
		}
	}
	return best
}

// ResolveEntitlement 纯函数：由订单事实和课程试听配置推出访问层级。
// 数据缺失只会降级，不会报错；匿名学习者视同没有订单。
func ResolveEntitlement(course *model.Course, orders []model.Order, identified bool) Entitlement {
	if course == nil {
		return Entitlement{Tier: TierNoAccess}
	}

	if identified {
		if eff := EffectiveOrder(orders); eff != nil {
			switch eff.Status {
			case model.OrderPaid:
				return Entitlement{Tier: TierOwned}
			case model.OrderPending:
				return Entitlement{Tier: TierPendingPayment, PendingOrderID: eff.ID}
			}
		}
	}

	if course.HasTrial {
		return Entitlement{Tier: TierTrialEligible}
	}
	return Entitlement{Tier: TierNoAccess}
}

// EntitlementService 组合订单与课程数据，得出权限层级；自身不落任何状态
type EntitlementService struct {
	OrderRepo  *repository.OrderRepository
	CourseRepo *repository.CourseRepository
}

func NewEntitlementService(orderRepo *repository.OrderRepository, courseRepo *repository.CourseRepository) *EntitlementService {
	return &EntitlementService{OrderRepo: orderRepo, CourseRepo: courseRepo}
}

// Resolve learnerID 为 nil 表示匿名访问
func (s *EntitlementService) Resolve(learnerID *uint, courseID uint) (Entitlement, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Entitlement{Tier: TierNoAccess}, util.ErrCourseNotFound
		}
		return Entitlement{Tier: TierNoAccess}, err
	}
	return s.ResolveForCourse(learnerID, course)
}

// ResolveForCourse 课程已在手时的入口，省一次查询
func (s *EntitlementService) ResolveForCourse(learnerID *uint, course *model.Course) (Entitlement, error) {
	var orders []model.Order
	if learnerID != nil {
		var err error
		orders, err = s.OrderRepo.FindByUserAndCourse(*learnerID, course.ID)
		if err != nil {
			return Entitlement{Tier: TierNoAccess}, err
		}
	}
	return ResolveEntitlement(course, orders, learnerID != nil), nil
}
