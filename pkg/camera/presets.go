package camera

// Preset names for common configurations
const (
	PresetDefault    = "default"
	PresetLowLatency = "low-latency"
	Preset720p       = "720p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault:    DefaultConfig(),
		PresetLowLatency: LowLatencyConfig(),
		Preset720p:       HD720Config(),
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LowLatencyConfig trades resolution for capture speed. Useful on
// single-board computers where 640x480 capture starves inference.
func LowLatencyConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	return cfg
}

// HD720Config captures at 1280x720 for long rooms where a fire fills
// few pixels at VGA resolution.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}
