package http

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/codesync/codesync-server/internal/config"
	"github.com/codesync/codesync-server/internal/core"
	"github.com/codesync/codesync-server/internal/exec"
	"github.com/codesync/codesync-server/internal/log"
	"github.com/codesync/codesync-server/internal/store"
	"github.com/codesync/codesync-server/internal/store/sqlite"
)

// createTestStore builds a throwaway sqlite document store.
func createTestStore(t *testing.T) store.DocumentStore {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// startTestServer spins up the full HTTP surface with a running hub.
func startTestServer(t *testing.T, judge *exec.Client, cfg config.Config) *httptest.Server {
	t.Helper()

	hub := core.NewHub(core.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	if cfg.Addr == "" {
		cfg = config.Default()
		cfg.Addr = ":0"
		cfg.ReadHeaderTimeout = time.Second
		cfg.ShutdownTimeout = time.Second
	}

	logger := log.NewWithWriter("error", testWriter{t})
	server := NewServer(hub, createTestStore(t), judge, cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
