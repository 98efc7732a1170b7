package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// BuildEnv returns base with dirs prepended to PATH. Empty dirs are skipped.
// When base has no PATH entry one is added.
func BuildEnv(base []string, dirs []string) []string {
	prefix := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			prefix = append(prefix, filepath.Clean(dir))
		}
	}

	env := make([]string, 0, len(base)+1)
	found := false
	for _, kv := range base {
		name, value, ok := strings.Cut(kv, "=")
		if ok && isPathKey(name) && !found {
			found = true
			env = append(env, name+"="+joinPath(prefix, value))
			continue
		}
		env = append(env, kv)
	}
	if !found {
		env = append(env, "PATH="+joinPath(prefix, ""))
	}
	return env
}

// ParentEnv returns the environment a tool inherits when the job sets none.
func ParentEnv() []string {
	return os.Environ()
}

func joinPath(prefix []string, existing string) string {
	parts := append([]string{}, prefix...)
	if existing != "" {
		parts = append(parts, existing)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

func isPathKey(name string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(name, "PATH")
	}
	return name == "PATH"
}

// NativePath converts a path to the platform's separator convention.
func NativePath(path string) string {
	if path == "" {
		return path
	}
	return filepath.FromSlash(path)
}
