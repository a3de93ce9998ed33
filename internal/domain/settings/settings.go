// Package settings holds the configuration the aggregation engine runs with:
// benchmark ranges, member roles and member aliases.
package settings

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/okian/kpiboard/internal/domain/model"
)

// Benchmark keys.
const (
	SMSResponseRate      = "smsResponseRate"
	ColdCallResponseRate = "coldCallResponseRate"
	MailResponseRate     = "mailResponseRate"
	LeadToQualifiedRate  = "leadToQualifiedRate"
	QualifiedToOfferRate = "qualifiedToOfferRate"
	OfferToContractRate  = "offerToContractRate"
	ContractSignRate     = "contractSignRate"
)

// BenchmarkKeys lists every known benchmark in display order.
var BenchmarkKeys = []string{
	SMSResponseRate,
	ColdCallResponseRate,
	MailResponseRate,
	LeadToQualifiedRate,
	QualifiedToOfferRate,
	OfferToContractRate,
	ContractSignRate,
}

// Range is a target band in percent.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks 0 <= Min <= Max.
func (r Range) Validate() error {
	if r.Min < 0 || r.Max < 0 || r.Min > r.Max {
		return fmt.Errorf("%w: min %.2f max %.2f", ErrInvalidBenchmark, r.Min, r.Max)
	}
	return nil
}

// Benchmarks maps a benchmark key to its target range.
type Benchmarks map[string]Range

// Get returns the range for key, or the zero Range when unknown.
func (b Benchmarks) Get(key string) Range { return b[key] }

// Set validates and stores a range.
func (b Benchmarks) Set(key string, r Range) error {
	if !slices.Contains(BenchmarkKeys, key) {
		return fmt.Errorf("%w: %q", ErrUnknownBenchmark, key)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	b[key] = r
	return nil
}

// Validate checks every entry.
func (b Benchmarks) Validate() error {
	for k, r := range b {
		if !slices.Contains(BenchmarkKeys, k) {
			return fmt.Errorf("%w: %q", ErrUnknownBenchmark, k)
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// DefaultBenchmarks returns a fresh copy of the built-in targets.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		SMSResponseRate:      {Min: 10, Max: 15},
		ColdCallResponseRate: {Min: 1, Max: 3},
		MailResponseRate:     {Min: 1.5, Max: 3},
		LeadToQualifiedRate:  {Min: 20, Max: 35},
		QualifiedToOfferRate: {Min: 30, Max: 40},
		OfferToContractRate:  {Min: 15, Max: 25},
		ContractSignRate:     {Min: 80, Max: 92},
	}
}

// Role is one of the fixed team functions.
type Role string

const (
	LeadGenerator Role = "Lead Generator"
	SMSMarketing  Role = "SMS/Marketing"
	Closer        Role = "Closer/Acquisitions"
	Analyst       Role = "Analyst"
)

// AllRoles is the closed role set in display order.
var AllRoles = []Role{LeadGenerator, SMSMarketing, Closer, Analyst}

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Roles maps a canonical member name to its role.
type Roles map[string]Role

// RoleOf returns the member's role. Names compare case-insensitively after
// trimming; there is no partial matching.
func (r Roles) RoleOf(member string) (Role, bool) {
	member = strings.TrimSpace(member)
	if role, ok := r[member]; ok {
		return role, true
	}
	for name, role := range r {
		if strings.EqualFold(name, member) {
			return role, true
		}
	}
	return "", false
}

// Key returns the stored spelling of member, if present.
func (r Roles) Key(member string) (string, bool) {
	member = strings.TrimSpace(member)
	for name := range r {
		if strings.EqualFold(name, member) {
			return name, true
		}
	}
	return "", false
}

// Members returns the assigned member names, sorted.
func (r Roles) Members() []string {
	return slices.Sorted(maps.Keys(r))
}

// Validate checks every role is in the closed set.
func (r Roles) Validate() error {
	for name, role := range r {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty member name", ErrInvalidMember)
		}
		if !slices.Contains(AllRoles, role) {
			return fmt.Errorf("%w: %q for %s", ErrUnknownRole, role, name)
		}
	}
	return nil
}

// DefaultRoles returns a fresh copy of the built-in role assignments.
func DefaultRoles() Roles {
	return Roles{
		"Gina":       LeadGenerator,
		"Alex":       LeadGenerator,
		"Kyle":       LeadGenerator,
		"Ian":        LeadGenerator,
		"Zia":        LeadGenerator,
		"Leah":       LeadGenerator,
		"Pedro Dev":  SMSMarketing,
		"Jescel":     SMSMarketing,
		"Lana Brown": Closer,
	}
}

// Aliases maps a raw name variant to the canonical member name.
type Aliases map[string]string

// Canonical resolves name to its canonical form. Matching is
// case-insensitive on the trimmed name; unknown names map to themselves.
func (a Aliases) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if c, ok := a[name]; ok {
		return c
	}
	for alias, c := range a {
		if strings.EqualFold(alias, name) {
			return c
		}
	}
	return name
}

// Validate rejects empty entries and chains, where a canonical target is
// itself an alias of another name.
func (a Aliases) Validate() error {
	for alias, c := range a {
		if strings.TrimSpace(alias) == "" || strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: empty alias entry", ErrInvalidAlias)
		}
		for other := range a {
			if strings.EqualFold(other, c) && !strings.EqualFold(other, alias) {
				return fmt.Errorf("%w: %q -> %q -> %q", ErrAliasChain, alias, c, a[other])
			}
		}
		if strings.EqualFold(alias, c) {
			return fmt.Errorf("%w: %q maps to itself", ErrInvalidAlias, alias)
		}
	}
	return nil
}

// Resolve returns a copy of records with Member set from each raw Name.
func (a Aliases) Resolve(records []model.KPIRecord) []model.KPIRecord {
	out := make([]model.KPIRecord, len(records))
	for i, r := range records {
		r.Member = a.Canonical(r.Name)
		out[i] = r
	}
	return out
}

// DefaultAliases returns a fresh copy of the built-in alias table.
func DefaultAliases() Aliases {
	return Aliases{
		"Kyle": "Alex",
		"Leah": "Zia",
	}
}

// Settings bundles everything the engine is configured with.
type Settings struct {
	Benchmarks Benchmarks `json:"benchmarks"`
	Roles      Roles      `json:"roles"`
	Aliases    Aliases    `json:"aliases"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Benchmarks: DefaultBenchmarks(),
		Roles:      DefaultRoles(),
		Aliases:    DefaultAliases(),
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	return Settings{
		Benchmarks: maps.Clone(s.Benchmarks),
		Roles:      maps.Clone(s.Roles),
		Aliases:    maps.Clone(s.Aliases),
	}
}

// Validate checks all three tables.
func (s Settings) Validate() error {
	if err := s.Benchmarks.Validate(); err != nil {
		return err
	}
	if err := s.Roles.Validate(); err != nil {
		return err
	}
	return s.Aliases.Validate()
}
