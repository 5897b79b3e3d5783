package gwlog

import (
	"path/filepath"
	"testing"
)

func TestGWLog(t *testing.T) {
	SetSource("gwlog_test")
	SetOutput([]string{"stderr", filepath.Join(t.TempDir(), "gwlog_test.log")})
	SetLevel(DebugLevel)

	for name, want := range map[string]Level{
		"debug":   DebugLevel,
		"info":    InfoLevel,
		"warn":    WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"panic":   PanicLevel,
		"fatal":   FatalLevel,
	} {
		if lv, err := ParseLevel(name); err != nil || lv != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, lv, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("ParseLevel should reject unknown levels")
	}

	Debugf("this is a debug %d", 1)
	SetLevel(InfoLevel)
	if GetLevel() != InfoLevel {
		t.Fatalf("level not applied: %v", GetLevel())
	}
	Debugf("SHOULD NOT SEE THIS!")
	Infof("this is an info %d", 2)
	Warnf("this is a warning %d", 3)
	TraceError("this is a trace error %d", 4)
	func() {
		defer func() {
			_ = recover()
		}()
		Panicf("this is a panic %d", 4)
	}()
	SetOutput([]string{"stderr"})
	SetLevel(DebugLevel)
}
