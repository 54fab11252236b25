package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Prefs is the small preferences file the client rewrites at runtime.
type Prefs struct {
	path string
}

type prefsFile struct {
	VoiceEnabled *bool `toml:"voice_enabled"`
}

// NewPrefs returns the preferences stored at path.
func NewPrefs(path string) *Prefs {
	return &Prefs{path: path}
}

// VoiceEnabled returns the saved voice setting, true when nothing usable is
// saved.
func (p *Prefs) VoiceEnabled() bool {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("read prefs", "path", p.path, "error", err)
		}
		return true
	}
	var f prefsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		slog.Warn("parse prefs", "path", p.path, "error", err)
		return true
	}
	if f.VoiceEnabled == nil {
		return true
	}
	return *f.VoiceEnabled
}

// SaveVoiceEnabled persists the voice setting.
func (p *Prefs) SaveVoiceEnabled(enabled bool) error {
	data, err := toml.Marshal(prefsFile{VoiceEnabled: &enabled})
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o750); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
