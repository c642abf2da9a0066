package service

import (
	"course_platform_backend/internal/model"
)

// AccessDecision 单个单元上允许的操作集合。
// 只描述权限状态，“视频尚未制作”属于内容可用性，不在这里表达。
type AccessDecision struct {
	CanAccess  bool `json:"canAccess"`  // 允许播放
	CanSync    bool `json:"canSync"`    // 允许持久化进度（必须已登录且可播放）
	CanDeliver bool `json:"canDeliver"` // 允许交付领取经验（必须已购买）
}

// DecideAccess 把权限层级 + 请求的单元换算成放行/拒绝：
//   - owned 全部解锁
//   - trial_eligible 只解锁第一章第一节
//   - pending_payment / no_access 全部锁定（课程元数据另行展示）
//
// 大纲与权限数据对不上（单元不存在、第一章没有单元）一律按拒绝处理。
func DecideAccess(ent Entitlement, chapters []model.Chapter, unitID string, identified bool) AccessDecision {
	if _, ok := model.FindUnit(chapters, unitID); !ok {
		return AccessDecision{}
	}

	var canAccess bool
	switch ent.Tier {
	case TierOwned:
		canAccess = true
	case TierTrialEligible:
		trialUnit := model.FirstTrialUnitID(chapters)
		canAccess = trialUnit != "" && unitID == trialUnit
	}

	return AccessDecision{
		CanAccess: canAccess,
		CanSync:   canAccess && identified,
		// 试听可以完成单元但不能交付，保留购买动机
		CanDeliver: canAccess && identified && ent.Owned(),
	}
}
