package tools

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"tonearm/internal/services"
	"tonearm/internal/textutil"
)

// UnknownVersion is reported by Version for tools that are not registered.
const UnknownVersion uint32 = math.MaxUint32

// Well-known codec tool names.
const (
	RefALAC  = "refalac"
	WVUnpack = "wvunpack"
	FDKAAC   = "fdkaac"
	OpusEnc  = "opusenc"
)

// Known lists the codec tools tonearm can drive.
var Known = []string{RefALAC, WVUnpack, FDKAAC, OpusEnc}

// Info describes a registered tool.
type Info struct {
	Name    string
	Path    string
	Version uint32
	Tag     string
}

type entry struct {
	info Info
	lock *flock.Flock
}

// Registry maps tool names to verified binaries. Names are matched
// case-insensitively after whitespace simplification. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Key normalizes a tool name for registry lookups.
func Key(name string) string {
	return strings.ToLower(textutil.Simplify(name))
}

// Register records a tool binary and takes a shared lock on it so the file
// cannot be exclusively locked for replacement while tonearm uses it.
// Registering the same name twice is an error.
func (r *Registry) Register(name, path string, version uint32, tag string) error {
	key := Key(name)
	if key == "" {
		return services.Wrap(services.ErrValidation, "tools", "register", "tool name is empty", nil)
	}
	abs, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return services.Wrap(services.ErrValidation, "tools", "register", fmt.Sprintf("resolve path for %q", name), err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "tools", "register", fmt.Sprintf("stat %q", abs), err)
	}
	if !info.Mode().IsRegular() {
		return services.Wrap(services.ErrValidation, "tools", "register", fmt.Sprintf("%q is not a regular file", abs), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return services.Wrap(services.ErrValidation, "tools", "register", fmt.Sprintf("tool %q is already registered", key), nil)
	}

	lock := flock.New(abs, flock.SetFlag(os.O_RDONLY))
	locked, err := lock.TryRLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tools", "register", fmt.Sprintf("lock %q", abs), err)
	}
	if !locked {
		return services.Wrap(services.ErrConfiguration, "tools", "register", fmt.Sprintf("%q is locked by another process", abs), nil)
	}

	r.entries[key] = &entry{
		info: Info{Name: key, Path: abs, Version: version, Tag: textutil.Simplify(tag)},
		lock: lock,
	}
	return nil
}

// Check reports whether name is registered.
func (r *Registry) Check(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[Key(name)]
	return ok
}

// Lookup returns the absolute path of a registered tool.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[Key(name)]; ok {
		return e.info.Path, true
	}
	return "", false
}

// Version returns the registered version and tag, or UnknownVersion and an
// empty tag when the tool is not registered.
func (r *Registry) Version(name string) (uint32, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[Key(name)]; ok {
		return e.info.Version, e.info.Tag
	}
	return UnknownVersion, ""
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close releases every file lock and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, e := range r.entries {
		if err := e.lock.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unlock %s: %w", key, err))
		}
		delete(r.entries, key)
	}
	return errors.Join(errs...)
}
