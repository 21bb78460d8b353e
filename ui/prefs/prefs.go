// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const prefsFile = "preferences.json"

// Prefs stores the handful of settings that survive restarts.
type Prefs struct {
	WindowWidth     float32 `json:"window_width"`
	WindowHeight    float32 `json:"window_height"`
	AssetDir        string  `json:"asset_dir,omitempty"`
	ExportDir       string  `json:"export_dir,omitempty"`
	ExportRatio     float64 `json:"export_ratio"`
	ShowScaleBar    bool    `json:"show_scale_bar"`
	ShowAttribution bool    `json:"show_attribution"`

	path string
}

func defaults() *Prefs {
	return &Prefs{
		WindowWidth:     1100,
		WindowHeight:    780,
		ExportRatio:     3.0,
		ShowScaleBar:    true,
		ShowAttribution: true,
	}
}

// Load reads preferences from ~/.config/contour-atlas/preferences.json,
// returning defaults when the file doesn't exist or can't be parsed.
func Load() *Prefs {
	p := defaults()

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	p.path = filepath.Join(configDir, "contour-atlas", prefsFile)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	if err := json.Unmarshal(data, p); err != nil {
		fresh := defaults()
		fresh.path = p.path
		return fresh
	}
	if p.WindowWidth <= 0 || p.WindowHeight <= 0 {
		p.WindowWidth = 1100
		p.WindowHeight = 780
	}
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}
