package controller

import (
	"errors"

	"course_platform_backend/internal/service"
	"course_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	OrderService *service.OrderService
}

func NewOrderController(orderService *service.OrderService) *OrderController {
	return &OrderController{OrderService: orderService}
}

type CreateOrderRequest struct {
	CourseID uint `json:"courseId" binding:"required"`
}

// @Summary 建立订单
// @Description 为某门课程建立待付款订单；已有待付款订单时直接返回该订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateOrderRequest true "下单课程"
// @Success 201 {object} util.Response
// @Router /api/orders [post]
func (c *OrderController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	order, err := c.OrderService.CreateOrder(ctx.Request.Context(), claims.UserID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAlreadyPurchased):
			util.Conflict(ctx, err.Error())
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, order)
}

// @Summary 付款
// @Description 对待付款订单完成付款，需指定付款方式与发票资讯
// @Tags 订单
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "订单ID"
// @Param body body service.PayRequest true "付款信息"
// @Success 200 {object} util.Response
// @Router /api/orders/{id}/pay [post]
func (c *OrderController) Pay(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	orderID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid order id")
		return
	}

	var req service.PayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	order, err := c.OrderService.PayOrder(claims.UserID, orderID, req)
	if err != nil {
		respondOrderError(ctx, err)
		return
	}
	util.Success(ctx, order)
}

// @Summary 取消订单
// @Description 取消自己的待付款订单
// @Tags 订单
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "订单ID"
// @Success 200 {object} util.Response
// @Router /api/orders/{id}/cancel [post]
func (c *OrderController) Cancel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	orderID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid order id")
		return
	}

	order, err := c.OrderService.CancelOrder(claims.UserID, orderID)
	if err != nil {
		respondOrderError(ctx, err)
		return
	}
	util.Success(ctx, order)
}

// @Summary 我的订单
// @Description 获取当前学习者的全部订单（含课程信息）
// @Tags 订单
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/orders [get]
func (c *OrderController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	orders, err := c.OrderService.ListMyOrders(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, orders)
}

func respondOrderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrOrderNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrOrderNotPending):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
