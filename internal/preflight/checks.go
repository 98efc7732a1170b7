package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"tonearm/internal/config"
	"tonearm/internal/deps"
	"tonearm/internal/tools"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSupportFiles reports whether the support directory that some codec
// tools load shared libraries from is present. A missing directory passes:
// tools built without external support files do not need it.
func CheckSupportFiles(cfg *config.Config) Result {
	const name = "Support files"
	dir := cfg.SupportDir()
	if dir == "" {
		return Result{Name: name, Passed: true, Detail: "not configured"}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (absent)", dir)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d files)", filepath.Clean(dir), len(entries))}
}

// CheckSystemDeps evaluates the codec tools through resolver. Both the
// tools command and the conversion commands use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(resolver tools.Resolver) []deps.Status {
	return deps.CheckBinaries(resolver, deps.CodecRequirements())
}
