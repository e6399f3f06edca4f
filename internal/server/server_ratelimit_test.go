package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"exegesisai/internal/app"
	"exegesisai/internal/ratelimit"
	"exegesisai/internal/store"
	"exegesisai/pkg/auth"
)

func newLimitedEnv(t *testing.T, limit int) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(mr.Addr(), "", "", limit, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	st := store.NewMemoryStore()
	a, err := app.New(app.Config{Store: st, AI: &fakeAI{}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	sessions, err := auth.NewSessions("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	srv := New(Config{App: a, Sessions: sessions, Limiter: limiter})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, sessions: sessions, store: st}
}

func TestQuerySubmissionIsRateLimited(t *testing.T) {
	env := newLimitedEnv(t, 2)
	for i := 0; i < 2; i++ {
		resp := env.proxy(t, "", "getExegesis", map[string]string{"query": "João 3:16"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	resp := env.proxy(t, "", "getExegesis", map[string]string{"query": "João 3:16"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the cap, got %d", resp.StatusCode)
	}
}

func TestRateLimitOnlyAppliesToQuerySubmission(t *testing.T) {
	env := newLimitedEnv(t, 1)
	resp := env.proxy(t, "", "getExegesis", map[string]string{"query": "João 3:16"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	// TTS and image actions are not query submissions and stay unmetered.
	resp = env.proxy(t, "", "generateTTS", map[string]string{"text": "texto"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for TTS after cap, got %d", resp.StatusCode)
	}
}
