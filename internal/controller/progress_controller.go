package controller

import (
	"errors"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/service"
	"course_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	DeliveryService *service.DeliveryService
}

func NewProgressController(progressService *service.ProgressService, deliveryService *service.DeliveryService) *ProgressController {
	return &ProgressController{ProgressService: progressService, DeliveryService: deliveryService}
}

type SyncRequest struct {
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	EndOfMedia      bool    `json:"endOfMedia"`
}

// @Summary 同步播放进度
// @Description 上报单元播放心跳或结束事件，百分比只升不降，完成状态不可逆
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param unitId path string true "单元ID"
// @Param body body SyncRequest true "播放事件"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/units/{unitId}/progress [put]
func (c *ProgressController) Sync(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	unitID := ctx.Param("unitId")

	var req SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	record, err := c.ProgressService.Sync(ctx.Request.Context(), claims.UserID, courseID, unitID, model.SyncEvent{
		PositionSeconds: req.PositionSeconds,
		DurationSeconds: req.DurationSeconds,
		EndOfMedia:      req.EndOfMedia,
	})
	if err != nil {
		respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, record)
}

// @Summary 课程进度
// @Description 获取当前学习者在某门课程的全部单元进度
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) GetCourseProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	records, err := c.ProgressService.GetCourseProgress(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// @Summary 交付单元
// @Description 领取已完成单元的经验值，重复领取幂等返回 expGained=0
// @Tags 学习进度
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "课程ID"
// @Param unitId path string true "单元ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/units/{unitId}/deliver [post]
func (c *ProgressController) Deliver(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}
	unitID := ctx.Param("unitId")

	result, err := c.DeliveryService.Deliver(ctx.Request.Context(), claims.UserID, courseID, unitID)
	if err != nil {
		respondProgressError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// respondProgressError 把进度/交付领域的哨兵错误映射为 HTTP 状态
func respondProgressError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAccessDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrNotCompleted):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrUnitNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrUnavailable):
		util.ServiceUnavailable(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
