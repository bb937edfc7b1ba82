// Package config provides hierarchical configuration management for
// blendforge using koanf. Configuration is loaded with priority: environment
// variables (BLENDFORGE_*) > project config (.blendforge/config.yml) > user
// config (~/.config/blendforge/config.yml) > defaults. The resulting struct
// is threaded explicitly into the preflight checker, stage registry, and
// checkpoint store; components never read process-global state ad hoc.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration represents the blendforge CLI tool configuration.
type Configuration struct {
	// BuildRoot is the directory all pipeline state is scoped to: sources,
	// logs, checkpoints, install tree. Distinct build roots never share
	// checkpoint state.
	BuildRoot string `koanf:"build_root"`

	// SourceDir is the Blender source checkout, relative to BuildRoot unless
	// absolute.
	SourceDir string `koanf:"source_dir"`

	// InstallPrefix is where the install stage places the finished build,
	// relative to BuildRoot unless absolute.
	InstallPrefix string `koanf:"install_prefix"`

	// GitRemote is the upstream Blender repository URL.
	GitRemote string `koanf:"git_remote"`

	// GitRef is the branch or tag to build.
	GitRef string `koanf:"git_ref"`

	// PatchDir holds local *.patch files applied by the patch stage,
	// relative to BuildRoot unless absolute. May be absent (patch stage
	// then has nothing to do).
	PatchDir string `koanf:"patch_dir"`

	// Jobs is the parallelism passed to the build stages. 0 means one job
	// per CPU.
	Jobs int `koanf:"jobs"`

	// SkipPreflight disables environment preflight checks before a run.
	SkipPreflight bool `koanf:"skip_preflight"`

	// DiskHardMinGB is the free-space hard minimum; below it preflight fails.
	DiskHardMinGB int `koanf:"disk_hard_min_gb"`

	// DiskRecommendedGB is the free-space recommended minimum; below it
	// preflight warns but continues.
	DiskRecommendedGB int `koanf:"disk_recommended_gb"`

	// MaxHistoryEntries caps the run history file; oldest entries are pruned.
	MaxHistoryEntries int `koanf:"max_history_entries"`
}

// Load loads configuration from user, project, and environment sources.
// projectConfigPath overrides the project config location (tests); pass ""
// for the default.
func Load(projectConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if userPath, err := UserConfigPath(); err == nil && fileExists(userPath) {
		if err := k.Load(file.Provider(userPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading user config %s: %w", userPath, err)
		}
	}

	projectPath := ProjectConfigPath()
	if projectConfigPath != "" {
		projectPath = projectConfigPath
	}
	if fileExists(projectPath) {
		if err := k.Load(file.Provider(projectPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading project config %s: %w", projectPath, err)
		}
	}

	if err := k.Load(env.Provider("BLENDFORGE_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.BuildRoot = expandHomePath(cfg.BuildRoot)
	return &cfg, nil
}

// envTransform maps BLENDFORGE_SOURCE_DIR to source_dir and so on.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "BLENDFORGE_"))
}

// SourcePath returns the absolute-or-buildroot-relative source directory.
func (c *Configuration) SourcePath() string {
	return c.resolve(c.SourceDir)
}

// InstallPath returns the resolved install prefix.
func (c *Configuration) InstallPath() string {
	return c.resolve(c.InstallPrefix)
}

// PatchPath returns the resolved patch directory, or "" when unset.
func (c *Configuration) PatchPath() string {
	if c.PatchDir == "" {
		return ""
	}
	return c.resolve(c.PatchDir)
}

func (c *Configuration) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BuildRoot, p)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// expandHomePath expands a leading ~/ to the user's home directory.
func expandHomePath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
