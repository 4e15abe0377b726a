package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/statekit/internal/config"
	"github.com/vango-dev/statekit/pkg/inject"
)

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	if err := runDemo(&out, false); err != nil {
		t.Fatalf("runDemo: %v", err)
	}

	want := []string{
		"registered Counter lazily (registered=true)",
		"render: count=0",
		"render: count=1",
		"render: count=2",
		"view disposed; count=3 without re-render",
		"same instance on second Find: true",
		"reset; registered=false",
		"find after reset: *main.Counter: E001: Dependency not registered",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(got), out.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if strings.Contains(out.String(), "render: count=3") {
		t.Error("disposed view should not render")
	}
}

func TestRunDemoVerbose(t *testing.T) {
	var out bytes.Buffer
	if err := runDemo(&out, true); err != nil {
		t.Fatalf("runDemo: %v", err)
	}

	for _, want := range []string{
		"[registry] lazyPut *main.Counter",
		"[registry] create *main.Counter",
		"[registry] dispose *main.Counter",
		"[registry] reset <none>",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("verbose output should contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version --short = %q, want %q", out.String(), version)
	}
}

func TestSplitAddr(t *testing.T) {
	tests := []struct {
		addr    string
		host    string
		port    int
		wantErr bool
	}{
		{"localhost:7070", "localhost", 7070, false},
		{":9000", "", 9000, false},
		{"[::1]:80", "::1", 80, false},
		{"nohost", "", 0, true},
		{"host:http", "", 0, true},
		{"host:70000", "", 0, true},
	}
	for _, tt := range tests {
		host, port, err := splitAddr(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitAddr(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if host != tt.host || port != tt.port {
			t.Errorf("splitAddr(%q) = %q, %d; want %q, %d", tt.addr, host, port, tt.host, tt.port)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"name":"from-file","devtools":{"port":9999}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Name != "from-file" || cfg.Devtools.Port != 9999 {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected an error for a missing explicit config")
	}
}

func TestBuildApp(t *testing.T) {
	cfg := config.New()
	cfg.Tracing.Enabled = true

	var logs bytes.Buffer
	a := buildApp(cfg, &logs)
	if a.gatherer == nil {
		t.Fatal("metrics are enabled by default")
	}

	inject.Put(a.registry, newCounter(a.tracker, a.logger))
	if got := len(a.hub.Recent()); got != 1 {
		t.Errorf("hub should see registry events, got %d", got)
	}

	families, err := a.gatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "statekit_registry_events_total" {
			found = true
		}
	}
	if !found {
		t.Error("registry events should be counted")
	}

	cfg.Metrics.Enabled = false
	if buildApp(cfg, &logs).gatherer != nil {
		t.Error("gatherer should be nil with metrics disabled")
	}
}

func TestRunServeStopsOnCancel(t *testing.T) {
	cfg := config.New()
	cfg.Devtools.Host = "127.0.0.1"
	cfg.Devtools.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var logs bytes.Buffer
	go func() { done <- runServe(ctx, cfg, &logs, 10*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}
