package config

import "fmt"

// Validate checks configuration values for internal consistency.
func Validate(cfg *Configuration) error {
	if cfg.BuildRoot == "" {
		return fmt.Errorf("build_root must not be empty")
	}
	if cfg.SourceDir == "" {
		return fmt.Errorf("source_dir must not be empty")
	}
	if cfg.InstallPrefix == "" {
		return fmt.Errorf("install_prefix must not be empty")
	}
	if cfg.GitRemote == "" {
		return fmt.Errorf("git_remote must not be empty")
	}
	if cfg.GitRef == "" {
		return fmt.Errorf("git_ref must not be empty")
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0, got %d", cfg.Jobs)
	}
	if cfg.DiskHardMinGB < 0 || cfg.DiskRecommendedGB < 0 {
		return fmt.Errorf("disk thresholds must be >= 0")
	}
	if cfg.DiskRecommendedGB < cfg.DiskHardMinGB {
		return fmt.Errorf("disk_recommended_gb (%d) must be >= disk_hard_min_gb (%d)",
			cfg.DiskRecommendedGB, cfg.DiskHardMinGB)
	}
	if cfg.MaxHistoryEntries < 1 {
		return fmt.Errorf("max_history_entries must be >= 1, got %d", cfg.MaxHistoryEntries)
	}
	return nil
}
