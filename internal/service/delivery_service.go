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

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeliveryService 把“已完成”一次性转为“已交付”并发放经验值。
// 交付与进度同步共用同一把按键互斥锁，保证并发下恰好发放一次。
type DeliveryService struct {
	ProgressRepo  *repository.ProgressRepository
	UserLevelRepo *repository.UserLevelRepository
	Content       *ContentService
	Entitlement   *EntitlementService
	Locks         *KeyedMutex
	DB            *gorm.DB

	mu     sync.RWMutex
	policy config.GamificationConfig
}

func NewDeliveryService(
	progressRepo *repository.ProgressRepository,
	userLevelRepo *repository.UserLevelRepository,
	content *ContentService,
	entitlement *EntitlementService,
	locks *KeyedMutex,
	cfg *config.Config,
	db *gorm.DB,
) *DeliveryService {
	return &DeliveryService{
		ProgressRepo:  progressRepo,
		UserLevelRepo: userLevelRepo,
		Content:       content,
		Entitlement:   entitlement,
		Locks:         locks,
		DB:            db,
		policy:        cfg.Gamification,
	}
}

// Reload 配置热更新回调：升级门槛策略即时生效
func (s *DeliveryService) Reload(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = cfg.Gamification
}

func (s *DeliveryService) currentPolicy() config.GamificationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// DeliveryResult 交付结果，仅用于前端提示，不参与后续逻辑
type DeliveryResult struct {
	ExpGained          int  `json:"expGained"`
	LeveledUp          bool `json:"leveledUp"`
	NewLevel           int  `json:"newLevel"`
	CurrentExp         int  `json:"currentExp"`
	NextLevelThreshold int  `json:"nextLevelThreshold"`
}

// Deliver 交付一个已完成的单元。
//
// 前置：已购买（试听不可交付）、completed 为真、尚未交付。
// 重复交付按幂等成功处理返回 expGained=0，重试的客户端请求不会重复发奖。
func (s *DeliveryService) Deliver(ctx context.Context, learnerID uint, courseID uint, unitID string) (*DeliveryResult, error) {
	course, chapters, err := s.Content.GetSyllabus(ctx, courseID)
	if err != nil {
		return nil, err
	}

	unit, ok := model.FindUnit(chapters, unitID)
	if !ok {
		return nil, util.ErrUnitNotFound
	}

	ent, err := s.Entitlement.ResolveForCourse(&learnerID, course)
	if err != nil {
		return nil, err
	}

	dec := DecideAccess(ent, chapters, unitID, true)
	if !dec.CanDeliver {
		monitoring.DeliveryCounter.WithLabelValues("denied").Inc()
		return nil, util.ErrAccessDenied
	}

	unlock := s.Locks.Lock(learnerID, unitID)
	defer unlock()

	record, err := s.ProgressRepo.FindByKey(learnerID, courseID, unitID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			monitoring.DeliveryCounter.WithLabelValues("not_completed").Inc()
			return nil, util.ErrNotCompleted
		}
		return nil, err
	}
	if !record.Completed {
		monitoring.DeliveryCounter.WithLabelValues("not_completed").Inc()
		return nil, util.ErrNotCompleted
	}

	policy := s.currentPolicy()

	// 已交付：幂等成功，不再发奖
	if record.Delivered {
		level, err := s.UserLevelRepo.FindOrCreate(learnerID, policy.BaseThreshold)
		if err != nil {
			return nil, err
		}
		monitoring.DeliveryCounter.WithLabelValues("duplicate").Inc()
		return &DeliveryResult{
			ExpGained:          0,
			LeveledUp:          false,
			NewLevel:           level.Level,
			CurrentExp:         level.CurrentExp,
			NextLevelThreshold: level.NextLevelThreshold,
		}, nil
	}

	expToGain := unit.Exp
	if expToGain <= 0 {
		expToGain = policy.DefaultUnitExp
	}

	level, err := s.UserLevelRepo.FindOrCreate(learnerID, policy.BaseThreshold)
	if err != nil {
		return nil, err
	}

	leveledUp := applyExp(level, expToGain, policy.GrowthFactor)

	// 交付标记与经验值发放在同一事务里落库
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		record.Delivered = true
		if err := tx.Save(record).Error; err != nil {
			return err
		}
		return tx.Save(level).Error
	})
	if err != nil {
		monitoring.DeliveryCounter.WithLabelValues("failed").Inc()
		logger.Log.Error("unit delivery persist failed",
			zap.Uint("userID", learnerID),
			zap.String("unitID", unitID),
			zap.Error(err))
		return nil, util.ErrUnavailable
	}

	monitoring.DeliveryCounter.WithLabelValues("delivered").Inc()

	return &DeliveryResult{
		ExpGained:          expToGain,
		LeveledUp:          leveledUp,
		NewLevel:           level.Level,
		CurrentExp:         level.CurrentExp,
		NextLevelThreshold: level.NextLevelThreshold,
	}, nil
}

// applyExp 发放经验并结算升级：经验达到门槛即升一级，
// 扣除门槛后按增长倍数计算下一级门槛，可能连升多级
func applyExp(level *model.UserLevel, exp int, growthFactor float64) bool {
	level.CurrentExp += exp

	leveledUp := false
	for level.CurrentExp >= level.NextLevelThreshold {
		level.CurrentExp -= level.NextLevelThreshold
		level.Level++
		level.NextLevelThreshold = int(float64(level.NextLevelThreshold) * growthFactor)
		leveledUp = true
	}
	return leveledUp
}

// GetLevel 学习者当前等级（不存在时建 Lv1 记录）
func (s *DeliveryService) GetLevel(learnerID uint) (*model.UserLevel, error) {
	return s.UserLevelRepo.FindOrCreate(learnerID, s.currentPolicy().BaseThreshold)
}

// LeaderboardEntry 等级排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	User       string `json:"user"`
	Level      int    `json:"level"`
	CurrentExp int    `json:"currentExp"`
}

func (s *DeliveryService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	var rows []struct {
		Name       string
		Level      int
		CurrentExp int
	}
	err := s.DB.Model(&model.UserLevel{}).
		Select("users.name AS name, user_levels.level AS level, user_levels.current_exp AS current_exp").
		Joins("JOIN users ON users.id = user_levels.user_id").
		Order("user_levels.level DESC, user_levels.current_exp DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntry{
			Rank:       i + 1,
			User:       row.Name,
			Level:      row.Level,
			CurrentExp: row.CurrentExp,
		}
	}
	return entries, nil
}
