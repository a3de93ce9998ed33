// Package repository persists the editable dashboard settings: benchmark
// ranges, role assignments and name aliases.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/okian/kpiboard/internal/domain/settings"
)

// Keys under which each settings part is stored.
const (
	KeyBenchmarks = "benchmarks"
	KeyRoles      = "roles"
	KeyAliases    = "aliases"
)

// SettingsStore loads and saves settings. Parts that were never saved load
// as their defaults.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	SaveBenchmarks(ctx context.Context, b settings.Benchmarks) error
	SaveRoles(ctx context.Context, r settings.Roles) error
	SaveAliases(ctx context.Context, a settings.Aliases) error
	Close() error
}

// decode builds settings from stored JSON values keyed by part. Stored
// benchmarks are layered over the defaults so a newly added benchmark key
// still has a range; roles and aliases replace the defaults wholesale.
func decode(values map[string][]byte) (settings.Settings, error) {
	s := settings.Defaults()

	if raw, ok := values[KeyBenchmarks]; ok {
		var stored settings.Benchmarks
		if err := json.Unmarshal(raw, &stored); err != nil {
			return settings.Settings{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyBenchmarks, err)
		}
		maps.Copy(s.Benchmarks, stored)
	}
	if raw, ok := values[KeyRoles]; ok {
		roles := settings.Roles{}
		if err := json.Unmarshal(raw, &roles); err != nil {
			return settings.Settings{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyRoles, err)
		}
		s.Roles = roles
	}
	if raw, ok := values[KeyAliases]; ok {
		aliases := settings.Aliases{}
		if err := json.Unmarshal(raw, &aliases); err != nil {
			return settings.Settings{}, fmt.Errorf("%w: %s: %w", ErrCorrupt, KeyAliases, err)
		}
		s.Aliases = aliases
	}

	if err := s.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return s, nil
}
