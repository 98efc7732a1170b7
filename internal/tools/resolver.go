package tools

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"tonearm/internal/config"
)

// Resolver locates a tool binary by name.
type Resolver interface {
	Lookup(name string) (string, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (string, bool)

func (f ResolverFunc) Lookup(name string) (string, bool) { return f(name) }

// Overrides resolves tools from explicit name → path entries. Keys must
// already be normalized with Key.
type Overrides map[string]string

func (o Overrides) Lookup(name string) (string, bool) {
	path, ok := o[Key(name)]
	if !ok || strings.TrimSpace(path) == "" {
		return "", false
	}
	return path, true
}

// SearchDirs resolves tools by probing each directory in order.
type SearchDirs []string

func (d SearchDirs) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, dir := range d {
		path, err := exec.LookPath(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs, true
		}
	}
	return "", false
}

// SystemPath resolves tools through the PATH environment variable.
type SystemPath struct{}

func (SystemPath) Lookup(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs, true
	}
	return path, true
}

// Chain tries each resolver in order and returns the first hit.
type Chain []Resolver

func (c Chain) Lookup(name string) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if path, ok := r.Lookup(name); ok {
			return path, true
		}
	}
	return "", false
}

// NewResolver builds the standard lookup order: registry, configured
// overrides, search directories, the application directory, then PATH.
func NewResolver(cfg *config.Config, reg *Registry) Resolver {
	chain := Chain{}
	if reg != nil {
		chain = append(chain, reg)
	}
	if cfg != nil {
		chain = append(chain, Overrides(cfg.Tools.Binaries), SearchDirs(cfg.Tools.SearchDirs))
		if cfg.Paths.AppDir != "" {
			chain = append(chain, SearchDirs{cfg.Paths.AppDir})
		}
	}
	return append(chain, SystemPath{})
}

// RegisterKnown resolves each name through fallback and registers the hits
// in reg, asking query for their versions when it is non-nil. Names that
// cannot be found are returned as missing; registration failures are
// returned as errors.
func RegisterKnown(ctx context.Context, reg *Registry, fallback Resolver, query VersionQuery, names ...string) (missing []string, err error) {
	if len(names) == 0 {
		names = Known
	}
	for _, name := range names {
		if reg.Check(name) {
			continue
		}
		path, ok := fallback.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		var version uint32
		var tag string
		if query != nil {
			version, tag = query(ctx, path)
		}
		if err := reg.Register(name, path, version, tag); err != nil {
			return missing, err
		}
	}
	return missing, nil
}
