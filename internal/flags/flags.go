// Package flags holds the feature flags read from the config file's
// flags section. A registry can be updated in place when the config is
// reloaded, so views that consult it pick up changes immediately.
package flags

import (
	"maps"
	"slices"
	"sync"

	"github.com/zjrosen/tourscout/internal/log"
)

const (
	// FlagResetCancels makes Reset cancel the running search on the
	// backend. When disabled, Reset only forgets the token locally.
	// Read once when the controller is built.
	FlagResetCancels = "reset-cancels"

	// FlagKeepPreviousResults keeps the last successful results on screen,
	// under a banner, while a new search runs or after it fails.
	FlagKeepPreviousResults = "keep-previous-results"
)

// Known lists every flag the application reads.
func Known() []string {
	return []string{FlagResetCancels, FlagKeepPreviousResults}
}

// Registry answers flag lookups. Safe for concurrent use; a nil *Registry
// reports every flag disabled.
type Registry struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// New creates a Registry holding a copy of flags.
func New(flags map[string]bool) *Registry {
	r := &Registry{flags: cloneFlags(flags)}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(r.flags), "flags", r.All())
	return r
}

func cloneFlags(flags map[string]bool) map[string]bool {
	if flags == nil {
		return make(map[string]bool)
	}
	return maps.Clone(flags)
}

// Enabled reports whether name is set to true. Unknown flags are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[name]
}

// Update replaces every flag and returns the names whose value changed,
// sorted.
func (r *Registry) Update(flags map[string]bool) []string {
	if r == nil {
		return nil
	}
	next := cloneFlags(flags)

	r.mu.Lock()
	prev := r.flags
	r.flags = next
	r.mu.Unlock()

	var changed []string
	for name := range next {
		if prev[name] != next[name] {
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok && prev[name] {
			changed = append(changed, name)
		}
	}
	slices.Sort(changed)
	if len(changed) > 0 {
		log.Info(log.CatConfig, "Feature flags changed", "flags", changed)
	}
	return changed
}

// All returns a copy of every flag.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return make(map[string]bool)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.flags)
}
