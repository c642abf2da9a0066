package service

import (
	"context"
	"course_platform_backend/internal/config"
	"course_platform_backend/internal/model"
	"course_platform_backend/internal/repository"
	"course_platform_backend/internal/util"
	"course_platform_backend/pkg/logger"
	"course_platform_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 进度同步协议的服务端实现。
// 心跳节奏（间隔、随播放暂停启停）由客户端负责，这里只保证合并语义：
// 重复、乱序、并发的上报都不会破坏已有进度。
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	Content      *ContentService
	Entitlement  *EntitlementService
	Locks        *KeyedMutex

	mu               sync.RWMutex
	storeRetries     int
	heartbeatSeconds int
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	content *ContentService,
	entitlement *EntitlementService,
	locks *KeyedMutex,
	cfg *config.Config,
) *ProgressService {
	return &ProgressService{
		ProgressRepo:     progressRepo,
		Content:          content,
		Entitlement:      entitlement,
		Locks:            locks,
		storeRetries:     cfg.Progress.StoreRetries,
		heartbeatSeconds: cfg.Progress.HeartbeatSeconds,
	}
}

// Reload 配置热更新回调
func (s *ProgressService) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeRetries = cfg.Progress.StoreRetries
	s.heartbeatSeconds = cfg.Progress.HeartbeatSeconds
}

func (s *ProgressService) retries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeRetries
}

func (s *ProgressService) HeartbeatSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heartbeatSeconds
}

// Decision 按单元计算放行矩阵，learnerID 为 nil 表示匿名
func (s *ProgressService) Decision(ctx context.Context, learnerID *uint, courseID uint, unitID string) (AccessDecision, error) {
	course, chapters, err := s.Content.GetSyllabus(ctx, courseID)
	if err != nil {
		return AccessDecision{}, err
	}
	if _, ok := model.FindUnit(chapters, unitID); !ok {
		return AccessDecision{}, util.ErrUnitNotFound
	}

	ent, err := s.Entitlement.ResolveForCourse(learnerID, course)
	if err != nil {
		return AccessDecision{}, err
	}
	return DecideAccess(ent, chapters, unitID, learnerID != nil), nil
}

// Sync 处理一次进度上报并返回合并后的记录。
//
// 时长未知（媒体仍在加载）是静默 no-op；锁定/匿名返回 ErrAccessDenied；
// 持久化在有限重试后仍失败返回 ErrUnavailable，客户端可整体重试，
// 因为合并是幂等的。
func (s *ProgressService) Sync(ctx context.Context, learnerID uint, courseID uint, unitID string, ev model.SyncEvent) (*model.UnitProgress, error) {
	course, chapters, err := s.Content.GetSyllabus(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if _, ok := model.FindUnit(chapters, unitID); !ok {
		return nil, util.ErrUnitNotFound
	}

	ent, err := s.Entitlement.ResolveForCourse(&learnerID, course)
	if err != nil {
		return nil, err
	}

	dec := DecideAccess(ent, chapters, unitID, true)
	if !dec.CanSync {
		monitoring.SyncEventCounter.WithLabelValues("denied").Inc()
		return nil, util.ErrAccessDenied
	}

	unlock := s.Locks.Lock(learnerID, unitID)
	defer unlock()

	record, err := s.ProgressRepo.FindByKey(learnerID, courseID, unitID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			monitoring.SyncEventCounter.WithLabelValues("failed").Inc()
			return nil, err
		}
		record = &model.UnitProgress{
			UserID:   learnerID,
			CourseID: courseID,
			UnitID:   unitID,
		}
	}

	// 媒体时长未知：不报错也不落库，等下一次心跳
	if ev.DurationSeconds <= 0 {
		monitoring.SyncEventCounter.WithLabelValues("noop").Inc()
		return record, nil
	}

	record.Merge(ev)

	if err := s.saveWithRetry(record); err != nil {
		monitoring.SyncEventCounter.WithLabelValues("failed").Inc()
		logger.Log.Error("progress sync persist failed",
			zap.Uint("userID", learnerID),
			zap.Uint("courseID", courseID),
			zap.String("unitID", unitID),
			zap.Error(err))
		return nil, util.ErrUnavailable
	}

	monitoring.SyncEventCounter.WithLabelValues("merged").Inc()
	return record, nil
}

func (s *ProgressService) saveWithRetry(record *model.UnitProgress) error {
	var err error
	for attempt := 0; attempt < s.retries(); attempt++ {
		if err = s.ProgressRepo.Save(record); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 20 * time.Millisecond)
	}
	return err
}

// GetCourseProgress 学习者在一门课内的全部进度记录
func (s *ProgressService) GetCourseProgress(ctx context.Context, learnerID uint, courseID uint) ([]model.UnitProgress, error) {
	if _, err := s.Content.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.ProgressRepo.FindByUserAndCourse(learnerID, courseID)
}

// OutlineUnit 大纲里的一个单元连同它对学习者的呈现状态。
// Locked 是权限状态，Available 是内容状态（视频是否已制作），两者独立。
type OutlineUnit struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Exp       int    `json:"exp,omitempty"`
	Available bool   `json:"available"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	Locked    bool   `json:"locked"`

	ProgressPercent       int  `json:"progressPercent"`
	Completed             bool `json:"completed"`
	Delivered             bool `json:"delivered"`
	ResumePositionSeconds int  `json:"resumePositionSeconds"`
}

type OutlineChapter struct {
	ID    string        `json:"id"`
	Title string        `json:"title"`
	Units []OutlineUnit `json:"units"`
}

// CourseOutline 学习页的完整呈现数据：表现层只需要渲染它
type CourseOutline struct {
	CourseID         uint             `json:"courseId"`
	Title            string           `json:"title"`
	Entitlement      Entitlement      `json:"entitlement"`
	TrialMode        bool             `json:"trialMode"`
	HeartbeatSeconds int              `json:"heartbeatSeconds"`
	Chapters         []OutlineChapter `json:"chapters"`
}

// CourseOutline 组装学习页视图：逐单元的锁定/进度/交付状态，
// 以及客户端应使用的心跳间隔与续播位置
func (s *ProgressService) CourseOutline(ctx context.Context, learnerID *uint, courseID uint) (*CourseOutline, error) {
	course, chapters, err := s.Content.GetSyllabus(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ent, err := s.Entitlement.ResolveForCourse(learnerID, course)
	if err != nil {
		return nil, err
	}

	progressByUnit := make(map[string]model.UnitProgress)
	if learnerID != nil {
		records, err := s.ProgressRepo.FindByUserAndCourse(*learnerID, courseID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			progressByUnit[r.UnitID] = r
		}
	}

	outline := &CourseOutline{
		CourseID:         course.ID,
		Title:            course.Title,
		Entitlement:      ent,
		TrialMode:        ent.Tier == TierTrialEligible,
		HeartbeatSeconds: s.HeartbeatSeconds(),
	}

	for _, ch := range chapters {
		oc := OutlineChapter{ID: ch.ID, Title: ch.Title}
		for i := range ch.Units {
			unit := &ch.Units[i]
			dec := DecideAccess(ent, chapters, unit.ID, learnerID != nil)
			mediaURL, available := s.Content.MediaURL(unit)

			ou := OutlineUnit{
				ID:        unit.ID,
				Title:     unit.Title,
				Exp:       unit.Exp,
				Available: available,
				Locked:    !dec.CanAccess,
			}
			if dec.CanAccess {
				ou.MediaURL = mediaURL
			}
			if record, ok := progressByUnit[unit.ID]; ok {
				ou.ProgressPercent = record.ProgressPercent
				ou.Completed = record.Completed
				ou.Delivered = record.Delivered
				ou.ResumePositionSeconds = record.LastPositionSeconds
			}
			oc.Units = append(oc.Units, ou)
		}
		outline.Chapters = append(outline.Chapters, oc)
	}

	return outline, nil
}
