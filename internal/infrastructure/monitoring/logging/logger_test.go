package logging

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewLoggerFromCore(core), logs
}

func TestFieldsReachEntries(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Info("selection complete",
		String("dataset", "tracts_2020"),
		Int("selected", 3),
		Float64("confidence", 0.85),
		Duration("elapsed", 12*time.Millisecond),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["dataset"] != "tracts_2020" {
		t.Errorf("dataset field = %v", fields["dataset"])
	}
	if fields["selected"] != int64(3) {
		t.Errorf("selected field = %v", fields["selected"])
	}
}

func TestErrField(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)

	log.Warn("cache degraded", Err(errors.New("connection refused")))
	log.Warn("no cause", Err(nil))

	entries := logs.All()
	if entries[0].ContextMap()["error"] != "connection refused" {
		t.Errorf("error field = %v", entries[0].ContextMap()["error"])
	}
	if entries[1].ContextMap()["error"] != "<nil>" {
		t.Errorf("nil error field = %v", entries[1].ContextMap()["error"])
	}
}

func TestErrFieldEncodesStructurally(t *testing.T) {
	log, logs := newObservedLogger(zapcore.DebugLevel)
	cause := errors.New("dial tcp: connection refused")

	log.Error("cache backend unavailable", Err(cause))

	fields := logs.All()[0].Context
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Type != zapcore.ErrorType {
		t.Errorf("error field type = %v, want zapcore.ErrorType", fields[0].Type)
	}
	if fields[0].Interface != cause {
		t.Error("error value should be preserved, not flattened to a string")
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	parent, logs := newObservedLogger(zapcore.DebugLevel)
	child := parent.With(String("request_id", "abc"))

	child.Info("child entry")
	parent.Info("parent entry")

	entries := logs.All()
	if _, ok := entries[0].ContextMap()["request_id"]; !ok {
		t.Error("child entry missing bound field")
	}
	if _, ok := entries[1].ContextMap()["request_id"]; ok {
		t.Error("parent entry should not carry the child field")
	}
}

func TestLevelFiltering(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	if got := len(logs.All()); got != 2 {
		t.Errorf("expected 2 entries at warn level, got %d", got)
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if parseLevel("nonsense") != zapcore.InfoLevel {
		t.Error("unknown level should default to info")
	}
	if parseLevel("debug") != zapcore.DebugLevel {
		t.Error("debug not parsed")
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	log, err := NewLogger(LogConfig{})
	if err != nil {
		t.Fatalf("NewLogger with empty config failed: %v", err)
	}
	if log == nil {
		t.Fatal("nil logger")
	}
}

func TestSetLevelSharedAcrossChildren(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "info", OutputPaths: []string{"stdout"}})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	setter, ok := log.(LevelSetter)
	if !ok {
		t.Fatal("zap-backed logger must implement LevelSetter")
	}
	setter.SetLevel("error")

	// Children derived before and after share the same atomic level.
	if _, ok := log.Named("child").(LevelSetter); !ok {
		t.Error("named child must keep the level setter")
	}
	if _, ok := log.With(String("k", "v")).(LevelSetter); !ok {
		t.Error("with-child must keep the level setter")
	}
}

func TestDefaultLoggerSwap(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	SetDefault(nil) // ignored
	if Default() != orig {
		t.Error("SetDefault(nil) must not replace the default")
	}

	nop := NewNopLogger()
	SetDefault(nop)
	if Default() != nop {
		t.Error("SetDefault should replace the default logger")
	}
}
