package service

import (
	"context"
	"course_platform_backend/internal/config"
	"course_platform_backend/internal/model"
	"course_platform_backend/internal/repository"
	"course_platform_backend/internal/util"
	"course_platform_backend/pkg/logger"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	courseCacheKeyPrefix = "course:"
	courseCacheTTL       = 10 * time.Minute
)

// ContentService 课程目录与大纲的只读入口，外加内容后台需要的最小写入口
type ContentService struct {
	CourseRepo     *repository.CourseRepository
	StorageService *StorageService
	Cfg            *config.Config
	Redis          *redis.Client
}

func NewContentService(courseRepo *repository.CourseRepository, storageService *StorageService, cfg *config.Config, rdb *redis.Client) *ContentService {
	return &ContentService{
		CourseRepo:     courseRepo,
		StorageService: storageService,
		Cfg:            cfg,
		Redis:          rdb,
	}
}

// GetCourse 带 Redis 缓存的课程详情
func (s *ContentService) GetCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	cacheKey := fmt.Sprintf("%s%d", courseCacheKeyPrefix, courseID)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var course model.Course
			if err := json.Unmarshal([]byte(cached), &course); err == nil {
				return &course, nil
			}
		}
	}

	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		if data, err := json.Marshal(course); err == nil {
			s.Redis.Set(ctx, cacheKey, data, courseCacheTTL)
		}
	}

	return course, nil
}

// GetSyllabus 课程及其解析后的大纲。大纲损坏按空大纲处理并告警，
// 详情页仍可渲染，播放侧会因找不到单元而拒绝。
func (s *ContentService) GetSyllabus(ctx context.Context, courseID uint) (*model.Course, []model.Chapter, error) {
	course, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	if strings.TrimSpace(course.SyllabusJSON) == "" {
		return course, nil, nil
	}

	chapters, err := course.ParsedSyllabus()
	if err != nil {
		logger.Log.Warn("course syllabus is invalid",
			zap.Uint("courseID", courseID), zap.Error(err))
		return course, nil, nil
	}

	return course, chapters, nil
}

func (s *ContentService) ListCourses(recommendedOnly bool) ([]model.Course, error) {
	if recommendedOnly {
		return s.CourseRepo.FindRecommended()
	}
	return s.CourseRepo.FindAll()
}

// MediaURL 单元视频的播放地址。第二个返回值标记“尚未制作”，
// 与权限锁定是两种不同的状态，调用方不可混为一谈。
func (s *ContentService) MediaURL(unit *model.Unit) (string, bool) {
	if unit == nil || !unit.HasMedia() {
		return "", false
	}
	return s.StorageService.GetURL("videos/" + unit.VideoID + ".mp4"), true
}

// SaveCourse 内容后台写入口：校验大纲后保存并失效缓存
func (s *ContentService) SaveCourse(ctx context.Context, course *model.Course) error {
	if strings.TrimSpace(course.SyllabusJSON) != "" {
		if _, err := model.ParseSyllabus(course.SyllabusJSON); err != nil {
			return err
		}
	}

	var err error
	if course.ID == 0 {
		err = s.CourseRepo.Create(course)
	} else {
		err = s.CourseRepo.Save(course)
	}
	if err != nil {
		return err
	}

	if s.Redis != nil && course.ID != 0 {
		s.Redis.Del(ctx, fmt.Sprintf("%s%d", courseCacheKeyPrefix, course.ID))
	}
	return nil
}

// UploadUnitVideo 上传某单元的视频：落临时文件、ffmpeg 探测时长、
// 生成封面帧，再交给存储后端。返回的 VideoInfo 供后台回填大纲。
func (s *ContentService) UploadUnitVideo(ctx context.Context, file *multipart.FileHeader, videoID string) (*util.VideoInfo, string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	isValidType := false
	for _, e := range util.AllowedVideoExtensions {
		if ext == e {
			isValidType = true
			break
		}
	}
	if !isValidType {
		return nil, "", util.ErrInvalidVideoExt
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	if _, err := util.ValidateMimeType(src, []string{util.MimeVideo, util.MimeOctetStream}); err != nil {
		return nil, "", fmt.Errorf("非法的文件内容: %v", err)
	}

	tmp, err := os.CreateTemp("", "unit_video_*"+ext)
	if err != nil {
		return nil, "", err
	}
	defer os.Remove(tmp.Name())

	src.Seek(0, 0)
	if _, err := tmp.ReadFrom(src); err != nil {
		tmp.Close()
		return nil, "", err
	}
	tmp.Close()

	info, err := util.GetVideoInfo(tmp.Name())
	if err != nil {
		return nil, "", err
	}

	thumbPath := tmp.Name() + ".jpg"
	if err := util.GenerateThumbnail(tmp.Name(), thumbPath, "00:00:01"); err == nil {
		defer os.Remove(thumbPath)
		s.StorageService.UploadFile(ctx, "thumbnails/"+videoID+".jpg", thumbPath, "image/jpeg")
	} else {
		logger.Log.Warn("thumbnail generation failed", zap.String("videoID", videoID), zap.Error(err))
	}

	url, err := s.StorageService.UploadFile(ctx, "videos/"+videoID+".mp4", tmp.Name(), file.Header.Get("Content-Type"))
	if err != nil {
		return nil, "", err
	}

	return info, url, nil
}
