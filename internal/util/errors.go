package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")

	ErrCourseNotFound = errors.New("course not found")
	ErrUnitNotFound   = errors.New("unit not found in syllabus")
	ErrOrderNotFound  = errors.New("order not found")

	// 访问层级不允许该操作（锁定、未购买或未登录），调用方可引导购买/登录
	ErrAccessDenied = errors.New("access denied for this unit")
	// 单元尚未完成就尝试交付，属于客户端时序错误
	ErrNotCompleted = errors.New("unit not completed yet")
	// 有限重试耗尽后的兜底错误，同步可安全整体重试
	ErrUnavailable = errors.New("store temporarily unavailable")

	ErrAlreadyPurchased = errors.New("您已购买此课程，请直接去上课")
	ErrOrderNotPending  = errors.New("order is not pending")

	ErrInvalidVideoExt = errors.New("不支持的视频格式")
)
