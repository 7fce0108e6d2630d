package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"nur_bot/internal/modules/health/service"
)

func TestReadyzFollowsWarmup(t *testing.T) {
	state := service.NewState()
	mux := NewMux(state)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d before warm-up, want 503", rec.Code)
	}

	state.SetReady(true)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d after warm-up, want 200", rec.Code)
	}
}

func TestLivezAlwaysOK(t *testing.T) {
	mux := NewMux(service.NewState())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthzSnapshot(t *testing.T) {
	state := service.NewState()
	state.SetReady(true)
	state.SetWSConnected(true)
	last := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	state.SetLastCandle(last)

	rec := httptest.NewRecorder()
	NewMux(state).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}

	var got struct {
		Ready          bool  `json:"ready"`
		WSConnected    bool  `json:"wsConnected"`
		LastCandleUnix int64 `json:"lastCandleUnix"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !got.Ready || !got.WSConnected || got.LastCandleUnix != last.Unix() {
		t.Fatalf("healthz = %+v", got)
	}
}
