package repository

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"vextract/parse-gateway/internal/models"
)

func TestAnnouncementFindActiveWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)

	d := &stubDriver{results: []stubResult{{
		columns: columnsOf(announcementColumns),
		rows: [][]driver.Value{
			{int64(3), "维护通知", int64(1), int64(10), start, nil, nil, now, now},
		},
	}}}
	repo := NewAnnouncementRepository(newStubDB(t, d))

	list, err := repo.FindActive(context.Background(), now)
	if err != nil {
		t.Fatalf("FindActive error = %v", err)
	}
	if len(list) != 1 || list[0].ID != 3 || list[0].Content != "维护通知" || list[0].Priority != 10 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].StartTime == nil || !list[0].StartTime.Equal(start) || list[0].EndTime != nil {
		t.Fatalf("window not scanned: start=%v end=%v", list[0].StartTime, list[0].EndTime)
	}

	q := d.query(t, 0)
	for _, frag := range []string{
		"WHERE status = $1",
		"(start_time IS NULL OR start_time <= $2)",
		"(end_time IS NULL OR end_time >= $2)",
		"ORDER BY priority DESC, created_at DESC",
	} {
		if !strings.Contains(q.query, frag) {
			t.Fatalf("query missing %q:\n%s", frag, q.query)
		}
	}
	if len(q.args) != 2 || q.args[0] != int64(models.AnnouncementEnabled) {
		t.Fatalf("args = %#v", q.args)
	}
	if at, ok := q.args[1].(time.Time); !ok || !at.Equal(now) {
		t.Fatalf("window bound = %#v, want %v", q.args[1], now)
	}
}

func TestAnnouncementListPaging(t *testing.T) {
	d := &stubDriver{results: []stubResult{
		{columns: []string{"count"}, rows: [][]driver.Value{{int64(25)}}},
		{columns: columnsOf(announcementColumns)},
	}}
	repo := NewAnnouncementRepository(newStubDB(t, d))

	status := 0
	list, total, err := repo.List(context.Background(), models.AnnouncementFilter{Status: &status, Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if total != 25 || len(list) != 0 {
		t.Fatalf("total = %d, list = %d", total, len(list))
	}

	if count := d.query(t, 0); !strings.Contains(count.query, "COUNT(*) FROM announcements WHERE status = $1") {
		t.Fatalf("count query = %q", count.query)
	}
	page := d.query(t, 1)
	if !strings.Contains(page.query, "WHERE status = $1 ORDER BY priority DESC, created_at DESC LIMIT $2 OFFSET $3") {
		t.Fatalf("page query = %q", page.query)
	}
	want := []driver.Value{int64(0), int64(10), int64(20)}
	for i, v := range want {
		if page.args[i] != v {
			t.Fatalf("args = %#v, want %#v", page.args, want)
		}
	}
}

func TestAnnouncementListWithoutFilter(t *testing.T) {
	d := &stubDriver{results: []stubResult{
		{columns: []string{"count"}, rows: [][]driver.Value{{int64(0)}}},
		{columns: columnsOf(announcementColumns)},
	}}
	repo := NewAnnouncementRepository(newStubDB(t, d))

	if _, _, err := repo.List(context.Background(), models.AnnouncementFilter{Page: 1, Limit: 10}); err != nil {
		t.Fatalf("List error = %v", err)
	}
	page := d.query(t, 1)
	if strings.Contains(page.query, "WHERE") || !strings.Contains(page.query, "LIMIT $1 OFFSET $2") {
		t.Fatalf("page query = %q", page.query)
	}
}
