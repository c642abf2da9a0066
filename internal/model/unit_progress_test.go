package model

import "testing"

func TestObservedPercent(t *testing.T) {
	cases := []struct {
		name string
		ev   SyncEvent
		want int
	}{
		{"floor", SyncEvent{PositionSeconds: 45, DurationSeconds: 90}, 50},
		{"floor truncates", SyncEvent{PositionSeconds: 89, DurationSeconds: 90}, 98},
		{"end forces full", SyncEvent{PositionSeconds: 89, DurationSeconds: 90, EndOfMedia: true}, 100},
		{"unknown duration", SyncEvent{PositionSeconds: 30}, 0},
		{"position past duration clamps", SyncEvent{PositionSeconds: 120, DurationSeconds: 90}, 100},
		{"negative position clamps", SyncEvent{PositionSeconds: -5, DurationSeconds: 90}, 0},
	}
	for _, tc := range cases {
		if got := tc.ev.ObservedPercent(); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestMergePercentIsMonotonic(t *testing.T) {
	p := UnitProgress{}

	p.Merge(SyncEvent{PositionSeconds: 45, DurationSeconds: 90})
	if p.ProgressPercent != 50 {
		t.Fatalf("expected 50, got %d", p.ProgressPercent)
	}

	// 回看到前面：position 跟随，percent 不回退
	p.Merge(SyncEvent{PositionSeconds: 10, DurationSeconds: 90})
	if p.ProgressPercent != 50 {
		t.Fatalf("percent regressed to %d", p.ProgressPercent)
	}
	if p.LastPositionSeconds != 10 {
		t.Fatalf("expected position 10, got %d", p.LastPositionSeconds)
	}
}

func TestMergeEndOfMediaCompletes(t *testing.T) {
	p := UnitProgress{ProgressPercent: 50}

	p.Merge(SyncEvent{PositionSeconds: 89, DurationSeconds: 90, EndOfMedia: true})
	if p.ProgressPercent != 100 {
		t.Fatalf("expected 100, got %d", p.ProgressPercent)
	}
	if !p.Completed {
		t.Fatal("expected completed after end event")
	}
}

func TestMergeCompletedIsSticky(t *testing.T) {
	p := UnitProgress{}
	p.Merge(SyncEvent{PositionSeconds: 90, DurationSeconds: 90, EndOfMedia: true})
	if !p.Completed {
		t.Fatal("expected completed")
	}

	// 重看过程中的心跳不会撤销完成状态
	p.Merge(SyncEvent{PositionSeconds: 5, DurationSeconds: 90})
	if !p.Completed {
		t.Fatal("completed flag must not be revoked")
	}
	if p.ProgressPercent != 100 {
		t.Fatalf("percent regressed to %d", p.ProgressPercent)
	}
	if p.LastPositionSeconds != 5 {
		t.Fatalf("expected resume position 5, got %d", p.LastPositionSeconds)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	a := UnitProgress{}
	b := UnitProgress{}

	ev := SyncEvent{PositionSeconds: 60, DurationSeconds: 90}
	a.Merge(ev)
	b.Merge(ev)
	b.Merge(ev)

	if a != b {
		t.Fatalf("repeated merge diverged: %+v vs %+v", a, b)
	}
}
