package config

// Defaults returns the built-in configuration values, keyed by koanf path.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"build_root":          ".",
		"source_dir":          "blender",
		"install_prefix":      "install",
		"git_remote":          "https://projects.blender.org/blender/blender.git",
		"git_ref":             "main",
		"patch_dir":           "patches",
		"jobs":                0,
		"skip_preflight":      false,
		"disk_hard_min_gb":    40,
		"disk_recommended_gb": 100,
		"max_history_entries": 100,
	}
}
