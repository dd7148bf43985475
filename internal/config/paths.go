package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir is the base for relative runtime paths: $BLOG_HOME when set,
// otherwise the directory holding the executable.
func HomeDir() string {
	if home := strings.TrimSpace(os.Getenv(envPrefix + "HOME")); home != "" {
		return filepath.Clean(home)
	}
	exe, err := os.Executable()
	if err == nil && strings.TrimSpace(exe) != "" {
		if resolved, resolveErr := filepath.EvalSymlinks(exe); resolveErr == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		return wd
	}
	return "."
}

// ResolveRuntimePath resolves a configured directory or file against HomeDir,
// using fallback when raw is empty.
func ResolveRuntimePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallback)
	}
	if target == "" {
		return HomeDir()
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(HomeDir(), target)
}
