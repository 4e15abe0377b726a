package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/statekit/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func errorCode(err error) string {
	var se *errors.StatekitError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Devtools.Port != DefaultPort {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, DefaultPort)
	}
	if cfg.Devtools.Host != DefaultHost {
		t.Errorf("Devtools.Host = %q, want %q", cfg.Devtools.Host, DefaultHost)
	}
	if cfg.Devtools.EventBuffer != DefaultEventBuffer {
		t.Errorf("Devtools.EventBuffer = %d, want %d", cfg.Devtools.EventBuffer, DefaultEventBuffer)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled by default")
	}
	if cfg.Tracing.Enabled {
		t.Error("Tracing should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if code := errorCode(err); code != "E101" {
		t.Errorf("missing config: code = %q, want E101 (err %v)", code, err)
	}

	writeConfig(t, tmpDir, `{
  "name": "shop",
  "debug": true,
  "log": {"level": "debug", "format": "json"},
  "devtools": {
    "port": 9090,
    "host": "0.0.0.0",
    "allowOrigins": ["http://localhost:3000"]
  },
  "metrics": {"enabled": false},
  "tracing": {"enabled": true, "tracerName": "shop-tracer"}
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "shop" {
		t.Errorf("Name = %q, want %q", cfg.Name, "shop")
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.Devtools.Port != 9090 || cfg.Devtools.Host != "0.0.0.0" {
		t.Errorf("Devtools = %+v", cfg.Devtools)
	}
	if cfg.Devtools.EventBuffer != DefaultEventBuffer {
		t.Errorf("EventBuffer default not applied: %d", cfg.Devtools.EventBuffer)
	}
	if len(cfg.Devtools.AllowOrigins) != 1 {
		t.Errorf("AllowOrigins = %v", cfg.Devtools.AllowOrigins)
	}
	if cfg.Metrics.Enabled {
		t.Error("explicit metrics.enabled=false should win over the default")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.TracerName != "shop-tracer" {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Path() != filepath.Join(tmpDir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, `{"devtools": {`)

	_, err := LoadFile(path)
	if code := errorCode(err); code != "E102" {
		t.Errorf("code = %q, want E102 (err %v)", code, err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		detail  string
	}{
		{"port", `{"devtools": {"port": 70000}}`, "devtools.port"},
		{"buffer", `{"devtools": {"eventBuffer": -1}}`, "eventBuffer"},
		{"level", `{"log": {"level": "verbose"}}`, "log.level"},
		{"format", `{"log": {"format": "xml"}}`, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := LoadFile(path)
			if code := errorCode(err); code != "E102" {
				t.Fatalf("code = %q, want E102 (err %v)", code, err)
			}
			var se *errors.StatekitError
			stderrors.As(err, &se)
			if !strings.Contains(se.Detail, tt.detail) {
				t.Errorf("Detail = %q, want it to mention %q", se.Detail, tt.detail)
			}
		})
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	if err := cfg.Save(); err == nil {
		t.Error("Save without a path should fail")
	}

	cfg.Name = "saved"
	cfg.Metrics.Enabled = false
	cfg.Devtools.Port = 8081
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("saved file should end with a newline")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Name != "saved" || loaded.Devtools.Port != 8081 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Metrics.Enabled {
		t.Error("metrics.enabled=false should survive a save")
	}

	loaded.Name = "again"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestAddress(t *testing.T) {
	cfg := New()
	if got := cfg.Address(); got != "localhost:7070" {
		t.Errorf("Address() = %q, want %q", got, "localhost:7070")
	}

	cfg.Devtools.Host = "::1"
	cfg.Devtools.Port = 8080
	if got := cfg.Address(); got != "[::1]:8080" {
		t.Errorf("Address() = %q, want %q", got, "[::1]:8080")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Name = "shop"
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"app":"shop"`) {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	cfg.Log.Format = "text"
	cfg.NewLogger(&buf).Warn("plain")
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"debug", true, "DEBUG"},
		{"INFO", true, "INFO"},
		{"", true, "INFO"},
		{"warning", true, "WARN"},
		{"error", true, "ERROR"},
		{"trace", false, "INFO"},
	}
	for _, tt := range tests {
		level, ok := parseLevel(tt.in)
		if ok != tt.ok || level.String() != tt.want {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.in, level, ok, tt.want, tt.ok)
		}
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot = %q, want %q", got, want)
	}

	if !Exists(root) || Exists(nested) {
		t.Error("Exists mismatch")
	}
}
