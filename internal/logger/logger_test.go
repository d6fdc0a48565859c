package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(prev) })
	return logs
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "rigview.log")

	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Replace(zap.NewNop())

	payload := strings.Repeat("v", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("frame %d: %s", i, payload)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read log dir: %v", err)
	}

	var rotated []string
	for _, e := range entries {
		name := e.Name()
		if name == "rigview.log" || !strings.HasPrefix(name, "rigview") {
			continue
		}
		rotated = append(rotated, name)
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s has no timestamp", name)
		}
	}
	if len(rotated) == 0 {
		t.Errorf("expected at least one rotated file, found %d entries", len(entries))
	}
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
		{level: "bogus", expected: []string{"INFO"}, excluded: []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(dir, tt.level+".log")
			if err := InitWithFileConfig(tt.level, FileConfig{Path: logFile, MaxSizeMB: 10}, false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}
			defer Replace(zap.NewNop())

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			out := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(out, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(out, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/rigview.log")

	if cfg.Path != "/tmp/rigview.log" {
		t.Errorf("expected path /tmp/rigview.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 || cfg.MaxBackups != 3 || cfg.MaxAgeDays != 7 {
		t.Errorf("unexpected rotation settings: %+v", cfg)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}

func TestWarnOnce(t *testing.T) {
	logs := observe(t)

	if !WarnOnce("program 3", "missing GeomTransform") {
		t.Error("first WarnOnce should emit")
	}
	if WarnOnce("program 3", "missing GeomTransform") {
		t.Error("second WarnOnce with the same key should not emit")
	}
	if !WarnOnce("program 4", "missing GeomTransform") {
		t.Error("WarnOnce with a new key should emit")
	}

	if got := logs.FilterMessage("missing GeomTransform").Len(); got != 2 {
		t.Errorf("expected 2 warnings, got %d", got)
	}
}

func TestLimited(t *testing.T) {
	logs := observe(t)

	emitted := 0
	for i := 0; i < 10; i++ {
		if Limited("uniform", 3, "uniform missing", zap.Int("i", i)) {
			emitted++
		}
	}
	if emitted != 3 {
		t.Errorf("expected 3 emitted warnings, got %d", emitted)
	}

	all := logs.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(all))
	}
	if _, ok := all[2].ContextMap()["suppressing_further"]; !ok {
		t.Error("last permitted warning should note suppression")
	}
	if _, ok := all[0].ContextMap()["suppressing_further"]; ok {
		t.Error("first warning should not note suppression")
	}
}

func TestNamed(t *testing.T) {
	logs := observe(t)

	Named("geometry").Info("uploaded")

	all := logs.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].LoggerName != "geometry" {
		t.Errorf("expected logger name geometry, got %q", all[0].LoggerName)
	}
}
