package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dori/zenith/internal/timer"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// Settings are the preferences a user changes from inside the app
type Settings struct {
	Durations timer.Durations
	Theme     string
	Embed     string
}

type yamlSettings struct {
	WorkMinutes       int    `yaml:"work_minutes"`
	ShortBreakMinutes int    `yaml:"short_break_minutes"`
	LongBreakMinutes  int    `yaml:"long_break_minutes"`
	Theme             string `yaml:"theme,omitempty"`
	Embed             string `yaml:"embed,omitempty"`
}

// DefaultSettings derives settings from the loaded configuration
func (cfg *Config) DefaultSettings() Settings {
	return Settings{
		Durations: timer.Durations{
			Work:       cfg.Timer.Work,
			ShortBreak: cfg.Timer.ShortBreak,
			LongBreak:  cfg.Timer.LongBreak,
		}.Clamped(),
		Theme: cfg.App.Theme,
		Embed: cfg.Media.DefaultEmbed,
	}
}

// LoadSettings reads user preferences from dir/settings.yaml.
// If the file does not exist, defaults are returned.
func LoadSettings(dir string, defaults Settings) (Settings, error) {
	settings := defaults
	rawData, err := os.ReadFile(filepath.Join(dir, settingsFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to dir/settings.yaml
func SaveSettings(dir string, settings Settings) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	fileData := yamlSettings{
		WorkMinutes:       settings.Durations.Work,
		ShortBreakMinutes: settings.Durations.ShortBreak,
		LongBreakMinutes:  settings.Durations.LongBreak,
		Theme:             settings.Theme,
		Embed:             settings.Embed,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, settingsFileName), serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *Settings, fileData yamlSettings) {
	if fileData.WorkMinutes > 0 {
		settings.Durations.Work = fileData.WorkMinutes
	}
	if fileData.ShortBreakMinutes > 0 {
		settings.Durations.ShortBreak = fileData.ShortBreakMinutes
	}
	if fileData.LongBreakMinutes > 0 {
		settings.Durations.LongBreak = fileData.LongBreakMinutes
	}
	if fileData.Theme != "" {
		settings.Theme = fileData.Theme
	}
	if fileData.Embed != "" {
		settings.Embed = fileData.Embed
	}
}
