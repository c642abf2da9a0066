package service

import (
	"context"
	"errors"
	"testing"

	"course_platform_backend/internal/model"
	"course_platform_backend/internal/util"
)

func TestSaveCourseValidatesSyllabus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bad := &model.Course{
		Title:        "坏课程",
		SyllabusJSON: `[{"id":"ch1","units":[{"id":"u1"},{"id":"u1"}]}]`,
	}
	if err := env.content.SaveCourse(ctx, bad); !errors.Is(err, model.ErrInvalidSyllabus) {
		t.Fatalf("expected ErrInvalidSyllabus, got %v", err)
	}

	good := &model.Course{Title: "好课程", SyllabusJSON: testSyllabus}
	if err := env.content.SaveCourse(ctx, good); err != nil {
		t.Fatalf("save course: %v", err)
	}
	if good.ID == 0 {
		t.Fatal("expected persisted course id")
	}
}

func TestGetSyllabusToleratesCorruptJSON(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	course := &model.Course{Title: "损坏", SyllabusJSON: "{not json"}
	if err := env.courses.Create(course); err != nil {
		t.Fatalf("create: %v", err)
	}

	// 详情仍可取到，大纲按空处理
	got, chapters, err := env.content.GetSyllabus(ctx, course.ID)
	if err != nil {
		t.Fatalf("get syllabus: %v", err)
	}
	if got.ID != course.ID {
		t.Fatalf("unexpected course: %+v", got)
	}
	if chapters != nil {
		t.Fatalf("expected nil chapters for corrupt syllabus, got %v", chapters)
	}
}

func TestGetCourseNotFound(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.content.GetCourse(context.Background(), 4242); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestMediaURL(t *testing.T) {
	env := newTestEnv(t)

	url, ok := env.content.MediaURL(&model.Unit{ID: "u1", VideoID: "v1"})
	if !ok || url == "" {
		t.Fatalf("expected media url, got %q %v", url, ok)
	}

	// 视频尚未制作：不可用，而不是错误
	if _, ok := env.content.MediaURL(&model.Unit{ID: "u4"}); ok {
		t.Fatal("expected unavailable for unit without video")
	}
	if _, ok := env.content.MediaURL(nil); ok {
		t.Fatal("expected unavailable for nil unit")
	}
}
