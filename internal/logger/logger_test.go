package logger

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"ERROR", LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) should fail", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestSetLevelFromString_IgnoresUnknown(t *testing.T) {
	SetLevel(LevelInfo)
	defer SetLevel(LevelInfo)

	SetLevelFromString("debug")
	mu.RLock()
	got := level
	mu.RUnlock()
	if got != LevelDebug {
		t.Errorf("level = %v, want debug", got)
	}

	SetLevelFromString("nonsense")
	mu.RLock()
	got = level
	mu.RUnlock()
	if got != LevelDebug {
		t.Errorf("unknown level must leave the setting untouched, got %v", got)
	}
}
