package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the XDG-compliant user config path,
// ~/.config/blendforge/config.yml.
func UserConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "blendforge", "config.yml"), nil
}

// ProjectConfigPath returns the project-level config path relative to the
// current working directory.
func ProjectConfigPath() string {
	return filepath.Join(".blendforge", "config.yml")
}
