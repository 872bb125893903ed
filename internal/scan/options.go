// Package scan runs the extraction pipeline over one repository:
// sample, prefetch, extract, aggregate.
package scan

import (
	"fmt"
	"io"
	"strings"

	"github.com/rohankatakam/depscan/internal/cache"
	"github.com/rohankatakam/depscan/internal/sampling"
	"github.com/sirupsen/logrus"
)

// DefaultProgressEvery is the progress reporting cadence in commits
const DefaultProgressEvery = 500

// Scope selects which files of a commit are analysed
type Scope string

const (
	// ScopeChanged analyses the source files a commit touched
	ScopeChanged Scope = "changed"
	// ScopeSnapshot analyses every source file in the commit's tree
	ScopeSnapshot Scope = "snapshot"
)

// ParseScope validates a scope name. The empty string means the default for
// mode.
func ParseScope(s string, mode sampling.Mode) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultScope(mode), nil
	case ScopeChanged:
		return ScopeChanged, nil
	case ScopeSnapshot:
		return ScopeSnapshot, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want changed or snapshot)", s)
	}
}

// DefaultScope is changed for every-commit scans and snapshot for periodic ones
func DefaultScope(mode sampling.Mode) Scope {
	if mode.Periodic() {
		return ScopeSnapshot
	}
	return ScopeChanged
}

// Options configure a single run
type Options struct {
	Mode   sampling.Mode
	Branch string
	// Limit truncates the sampled commit list; 0 keeps everything
	Limit int
	Scope Scope
	// ProgressEvery defaults to DefaultProgressEvery
	ProgressEvery int
	// Strict re-raises extractor panics
	Strict bool
	// Cache is optional
	Cache  *cache.Manager
	Logger logrus.FieldLogger
}

func (o *Options) normalize() error {
	if o.Mode == "" {
		o.Mode = sampling.ModeAll
	}
	if _, err := sampling.ParseMode(string(o.Mode)); err != nil {
		return err
	}
	scope, err := ParseScope(string(o.Scope), o.Mode)
	if err != nil {
		return err
	}
	o.Scope = scope
	if o.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", o.Limit)
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return nil
}
