package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scylla/internal/config"
	"scylla/internal/store"
)

type fakeDataSource struct {
	rows        []store.ServiceRow
	cols        []store.ServiceColumn
	leaderboard []store.LeaderboardRow
}

func (f *fakeDataSource) GridRows(ctx context.Context) ([]store.ServiceRow, error) { return f.rows, nil }
func (f *fakeDataSource) Columns(ctx context.Context) ([]store.ServiceColumn, error) {
	return f.cols, nil
}
func (f *fakeDataSource) Leaderboard(ctx context.Context) ([]store.LeaderboardRow, error) {
	return f.leaderboard, nil
}

func testServer() *Server {
	round := &config.Round{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	ds := &fakeDataSource{
		rows: []store.ServiceRow{
			{TeamID: "red", VMID: "box1", ServiceID: "ssh", CheckCount: 10, UptimeScore: 9, SLACount: 0},
			{TeamID: "blue", VMID: "box1", ServiceID: "ssh", CheckCount: 10, UptimeScore: 2, SLACount: 1},
		},
		cols: []store.ServiceColumn{
			{VMID: "box1", ServiceID: "ssh"},
		},
		leaderboard: []store.LeaderboardRow{
			{TeamID: "red", Score: 9},
			{TeamID: "blue", Score: 1},
		},
	}
	return New(round, ds)
}

func TestHandleGrid_Scores(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest("GET", "/scores", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "red") || !strings.Contains(rr.Body.String(), "blue") {
		t.Errorf("body missing team rows: %s", rr.Body.String())
	}
}

func TestHandleGrid_Uptime(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest("GET", "/uptime", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestHandleGrid_SLAs(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest("GET", "/slas", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestHandleLeaderboard_OrderedByScore(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest("GET", "/leaderboard", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if strings.Index(body, "red") > strings.Index(body, "blue") {
		t.Errorf("expected red (higher score) before blue in body: %s", body)
	}
}

func TestHandlePatchListing(t *testing.T) {
	round := &config.Round{PatchServerDir: t.TempDir()}
	s := New(round, &fakeDataSource{})

	req := httptest.NewRequest("GET", "/patch-server", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
