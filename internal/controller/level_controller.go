package controller

import (
	"strconv"

	"course_platform_backend/internal/service"
	"course_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	DeliveryService *service.DeliveryService
}

func NewLevelController(deliveryService *service.DeliveryService) *LevelController {
	return &LevelController{DeliveryService: deliveryService}
}

// @Summary 我的等级
// @Description 获取当前学习者的等级、经验值与升级门槛
// @Tags 成长体系
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/levels/me [get]
func (c *LevelController) Me(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	level, err := c.DeliveryService.GetLevel(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// @Summary 排行榜
// @Description 按等级与经验值排序的学习者排行榜
// @Tags 成长体系
// @Produce json
// @Param limit query int false "返回名额，默认 10"
// @Success 200 {object} util.Response
// @Router /api/leaderboard [get]
func (c *LevelController) Leaderboard(ctx *gin.Context) {
	limit := 10
	if raw := ctx.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}

	entries, err := c.DeliveryService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
