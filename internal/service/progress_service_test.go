package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/util"
)

func TestSyncHeartbeatFloorsPercent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	record, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{
		PositionSeconds: 45, DurationSeconds: 90,
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if record.ProgressPercent != 50 {
		t.Fatalf("expected 50%%, got %d", record.ProgressPercent)
	}
	if record.Completed {
		t.Fatal("should not be completed at 50%")
	}
	if record.LastPositionSeconds != 45 {
		t.Fatalf("expected position 45, got %d", record.LastPositionSeconds)
	}
}

func TestSyncEndOfMediaForcesCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	// 播放器在 89/90 处触发 ended：片尾误差由 end 事件吸收
	record, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{
		PositionSeconds: 89, DurationSeconds: 90, EndOfMedia: true,
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if record.ProgressPercent != 100 || !record.Completed {
		t.Fatalf("expected completed 100%%, got %d completed=%v", record.ProgressPercent, record.Completed)
	}
}

func TestSyncPercentNeverRegresses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 72, DurationSeconds: 90}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	record, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 9, DurationSeconds: 90})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if record.ProgressPercent != 80 {
		t.Fatalf("percent regressed: got %d", record.ProgressPercent)
	}
	// 续播位置跟随最后一次上报
	if record.LastPositionSeconds != 9 {
		t.Fatalf("expected position 9, got %d", record.LastPositionSeconds)
	}
}

func TestSyncCompletionSurvivesRewatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 90, DurationSeconds: 90, EndOfMedia: true}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	record, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 3, DurationSeconds: 90})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !record.Completed || record.ProgressPercent != 100 {
		t.Fatalf("rewatch revoked completion: %+v", record)
	}
}

func TestSyncUnknownDurationIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	// 媒体仍在加载、时长未知：不报错、不落库
	record, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 10})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if record.ProgressPercent != 0 || record.ID != 0 {
		t.Fatalf("noop event should not persist: %+v", record)
	}

	records, err := env.progress.GetCourseProgress(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no stored records, got %d", len(records))
	}
}

func TestSyncDeniedForLockedUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, true)

	// 试听身份可以同步第一章第一节
	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 10, DurationSeconds: 90}); err != nil {
		t.Fatalf("trial unit sync: %v", err)
	}

	// 但第二节锁定
	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u2", model.SyncEvent{PositionSeconds: 10, DurationSeconds: 90}); !errors.Is(err, util.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestSyncUnknownUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "ghost", model.SyncEvent{PositionSeconds: 10, DurationSeconds: 90}); !errors.Is(err, util.ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
}

func TestSyncConcurrentHeartbeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, false)
	env.purchase(t, user.ID, course.ID)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(pos float64) {
			defer wg.Done()
			env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: pos, DurationSeconds: 100})
		}(float64(10 * (i + 1)))
	}
	wg.Wait()

	records, err := env.progress.GetCourseProgress(ctx, user.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected single record for the unit, got %d", len(records))
	}
	// 无论调度顺序如何，percent 必须等于观测到的最大值
	if records[0].ProgressPercent != 80 {
		t.Fatalf("expected 80%%, got %d", records[0].ProgressPercent)
	}
}

func TestCourseOutlineForTrialLearner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "a@test.dev")
	course := env.createCourse(t, true)

	if _, err := env.progress.Sync(ctx, user.ID, course.ID, "u1", model.SyncEvent{PositionSeconds: 30, DurationSeconds: 60}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	outline, err := env.progress.CourseOutline(ctx, &user.ID, course.ID)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if !outline.TrialMode {
		t.Fatal("expected trial mode")
	}
	if outline.HeartbeatSeconds != 10 {
		t.Fatalf("expected heartbeat 10, got %d", outline.HeartbeatSeconds)
	}

	units := map[string]OutlineUnit{}
	for _, ch := range outline.Chapters {
		for _, u := range ch.Units {
			units[u.ID] = u
		}
	}

	if units["u1"].Locked {
		t.Fatal("trial unit must be unlocked")
	}
	if units["u1"].MediaURL == "" {
		t.Fatal("unlocked unit should expose media url")
	}
	if units["u1"].ProgressPercent != 50 || units["u1"].ResumePositionSeconds != 30 {
		t.Fatalf("expected progress on trial unit, got %+v", units["u1"])
	}

	if !units["u2"].Locked || units["u2"].MediaURL != "" {
		t.Fatalf("locked unit must not expose media url: %+v", units["u2"])
	}

	// u4 没有 videoId：解锁与否之外，内容本身不可用
	if units["u4"].Available {
		t.Fatal("unit without media must be unavailable")
	}
}

func TestCourseOutlineAnonymous(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, true)

	outline, err := env.progress.CourseOutline(context.Background(), nil, course.ID)
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if !outline.TrialMode {
		t.Fatal("anonymous visitor should see trial mode on trial course")
	}
	for _, ch := range outline.Chapters {
		for _, u := range ch.Units {
			if u.ProgressPercent != 0 || u.Completed {
				t.Fatalf("anonymous outline must carry no progress: %+v", u)
			}
		}
	}
}
