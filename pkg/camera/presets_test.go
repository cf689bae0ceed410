package camera

import "testing"

func TestPresets(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{PresetDefault, 640, 480},
		{PresetLowLatency, 320, 240},
		{Preset720p, 1280, 720},
	}

	for _, tt := range tests {
		cfg := GetPreset(tt.name)
		if cfg == nil {
			t.Fatalf("GetPreset(%q) = nil", tt.name)
		}
		if cfg.Width != tt.width || cfg.Height != tt.height {
			t.Errorf("%s: got %dx%d, want %dx%d", tt.name, cfg.Width, cfg.Height, tt.width, tt.height)
		}
		if cfg.FlipCode != FlipNone {
			t.Errorf("%s: flip code should default to FlipNone", tt.name)
		}
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if cfg := GetPreset("4k"); cfg != nil {
		t.Errorf("GetPreset should return nil for unknown preset, got %+v", cfg)
	}
}
