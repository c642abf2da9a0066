package controller

import (
	"errors"
	"strconv"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/service"
	"course_platform_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	ContentService  *service.ContentService
	ProgressService *service.ProgressService
}

func NewCourseController(contentService *service.ContentService, progressService *service.ProgressService) *CourseController {
	return &CourseController{ContentService: contentService, ProgressService: progressService}
}

// @Summary 课程列表
// @Description 获取课程目录，可选只看推荐课程
// @Tags 课程
// @Produce json
// @Param recommended query bool false "只返回推荐课程"
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	recommendedOnly := ctx.Query("recommended") == "true"
	courses, err := c.ContentService.ListCourses(recommendedOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情
// @Description 获取单门课程的基本信息
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.ContentService.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 学习大纲
// @Description 获取课程的章节大纲，按当前学习者权限标记可学单元与进度
// @Tags 课程
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/learn [get]
func (c *CourseController) Outline(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	outline, err := c.ProgressService.CourseOutline(ctx.Request.Context(), util.LearnerID(ctx), courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, outline)
}

type SaveCourseRequest struct {
	ID              uint   `json:"id"`
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	LongDescription string `json:"longDescription"`
	Image           string `json:"image"`
	Price           int    `json:"price"`
	OriginalPrice   int    `json:"originalPrice"`
	Tags            string `json:"tags"`
	Highlight       bool   `json:"highlight"`
	PromoText       string `json:"promoText"`
	HasTrial        bool   `json:"hasTrial"`
	Recommended     bool   `json:"recommended"`
	SyllabusJSON    string `json:"syllabusJson" binding:"required"`
}

// @Summary 保存课程
// @Description 创建或更新课程，大纲 JSON 会先做校验
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SaveCourseRequest true "课程内容"
// @Success 200 {object} util.Response
// @Router /api/admin/courses [post]
func (c *CourseController) Save(ctx *gin.Context) {
	var req SaveCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course := &model.Course{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		LongDescription: req.LongDescription,
		Image:           req.Image,
		Price:           req.Price,
		OriginalPrice:   req.OriginalPrice,
		Tags:            req.Tags,
		Highlight:       req.Highlight,
		PromoText:       req.PromoText,
		HasTrial:        req.HasTrial,
		Recommended:     req.Recommended,
		SyllabusJSON:    req.SyllabusJSON,
	}
	course.ID = req.ID

	if err := c.ContentService.SaveCourse(ctx.Request.Context(), course); err != nil {
		if errors.Is(err, model.ErrEmptySyllabus) || errors.Is(err, model.ErrInvalidSyllabus) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 上传单元视频
// @Description 上传视频文件并生成封面，返回媒体信息
// @Tags 管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param videoId formData string true "单元视频ID"
// @Param file formData file true "视频文件"
// @Success 200 {object} util.Response
// @Router /api/admin/videos [post]
func (c *CourseController) UploadVideo(ctx *gin.Context) {
	videoID := ctx.PostForm("videoId")
	if videoID == "" {
		util.BadRequest(ctx, "videoId is required")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	info, url, err := c.ContentService.UploadUnitVideo(ctx.Request.Context(), file, videoID)
	if err != nil {
		if errors.Is(err, util.ErrInvalidVideoExt) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"videoId":  videoID,
		"url":      url,
		"duration": info.Duration,
		"width":    info.Width,
		"height":   info.Height,
	})
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
