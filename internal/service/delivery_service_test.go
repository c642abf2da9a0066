package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/util"
)

func (e *testEnv) completeUnit(t *testing.T, userID, courseID uint, unitID string) {
	t.Helper()
	if _, err := e.progress.Sync(context.Background(), userID, courseID, unitID, model.SyncEvent{
		PositionSeconds: 90, DurationSeconds: 90, EndOfMedia: true,
	}); err != nil {
		t.Fatalf("complete unit %s: %v", unitID, err)
	}
}

func TestDeliverRequiresCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	// 从未播放
	if _, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1"); !errors.Is(err, util.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}

	// 播了一半
	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 45, DurationSeconds: 90}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1"); !errors.Is(err, util.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted at 50%%, got %v", err)
	}
}

func TestDeliverAwardsUnitExp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)
	env.completeUnit(t, user.ID, course.ID, "u1")

	result, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if result.ExpGained != 50 {
		t.Fatalf("expected exp 50 from syllabus, got %d", result.ExpGained)
	}
	if result.LeveledUp || result.NewLevel != 1 {
		t.Fatalf("50 exp should not level up from Lv1: %+v", result)
	}
	if result.CurrentExp != 50 {
		t.Fatalf("expected current exp 50, got %d", result.CurrentExp)
	}
}

func TestDeliverFallsBackToDefaultExp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	// u2 没有配置 exp，走默认值 100，刚好触发 Lv1 -> Lv2
	env.completeUnit(t, user.ID, course.ID, "u2")
	result, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u2")
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if result.ExpGained != 100 {
		t.Fatalf("expected default exp 100, got %d", result.ExpGained)
	}
	if !result.LeveledUp || result.NewLevel != 2 {
		t.Fatalf("expected level up to 2: %+v", result)
	}
	if result.CurrentExp != 0 {
		t.Fatalf("expected exp reset to 0 after exact level up, got %d", result.CurrentExp)
	}
	if result.NextLevelThreshold != 150 {
		t.Fatalf("expected next threshold 150, got %d", result.NextLevelThreshold)
	}
}

func TestDeliverIsOneShot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)
	env.completeUnit(t, user.ID, course.ID, "u1")

	first, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1")
	if err != nil {
		t.Fatalf("first deliver: %v", err)
	}

	// 重试/重复点击：幂等成功，不再发奖
	second, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1")
	if err != nil {
		t.Fatalf("second deliver: %v", err)
	}
	if second.ExpGained != 0 || second.LeveledUp {
		t.Fatalf("duplicate delivery must not award: %+v", second)
	}
	if second.CurrentExp != first.CurrentExp || second.NewLevel != first.NewLevel {
		t.Fatalf("duplicate delivery changed level state: %+v vs %+v", first, second)
	}
}

func TestDeliverDeniedForTrial(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, true)

	// 试听身份把试听单元看完
	env.completeUnit(t, user.ID, course.ID, "u1")

	// 完成归完成，交付只属于已购买者
	if _, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1"); !errors.Is(err, util.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for trial delivery, got %v", err)
	}
}

func TestDeliverConcurrentAwardsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)
	env.completeUnit(t, user.ID, course.ID, "u1")

	var wg sync.WaitGroup
	results := make([]*DeliveryResult, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1")
			if err == nil {
				results[i] = r
			}
		}(i)
	}
	wg.Wait()

	awarded := 0
	for _, r := range results {
		if r != nil && r.ExpGained > 0 {
			awarded++
		}
	}
	if awarded != 1 {
		t.Fatalf("expected exactly one awarding delivery, got %d", awarded)
	}

	level, err := env.delivery.GetLevel(user.ID)
	if err != nil {
		t.Fatalf("get level: %v", err)
	}
	if level.CurrentExp != 50 {
		t.Fatalf("expected total exp 50, got %d", level.CurrentExp)
	}
}

func TestApplyExpMultiLevel(t *testing.T) {
	level := &model.UserLevel{Level: 3, CurrentExp: 90, NextLevelThreshold: 100}

	// 90 + 50 = 140 >= 100：升到 Lv4，余 40，门槛 100*1.5=150
	leveledUp := applyExp(level, 50, 1.5)
	if !leveledUp {
		t.Fatal("expected level up")
	}
	if level.Level != 4 || level.CurrentExp != 40 || level.NextLevelThreshold != 150 {
		t.Fatalf("unexpected level state: %+v", level)
	}

	// 一次性大额经验可以连升多级
	level = &model.UserLevel{Level: 1, CurrentExp: 0, NextLevelThreshold: 100}
	applyExp(level, 260, 1.5)
	// 260 -> -100 升 Lv2(门槛150) -> -150 升 Lv3(门槛225)，余 10
	if level.Level != 3 || level.CurrentExp != 10 || level.NextLevelThreshold != 225 {
		t.Fatalf("unexpected multi-level state: %+v", level)
	}
}

func TestDeliverThenOutlineShowsDelivered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)
	env.completeUnit(t, user.ID, course.ID, "u1")

	if _, err := env.delivery.Deliver(ctx, user.ID, course.ID, "u1"); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	outline, err := env.progress.CourseOutline(ctx, &user.ID, course.ID)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	for _, ch := range outline.Chapters {
		for _, u := range ch.Units {
			if u.ID == "u1" {
				if !u.Delivered || !u.Completed {
					t.Fatalf("expected delivered unit in outline: %+v", u)
				}
				return
			}
		}
	}
	t.Fatal("u1 missing from outline")
}
