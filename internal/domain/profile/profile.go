// Package profile holds the archetype profiles a dataset is clustered
// against. A Registry is built once at startup and is immutable for the
// duration of a run; no process-wide state persists across runs.
package profile

import (
	"fmt"
)

// Profile is a named archetype defined by ideal feature values.
type Profile struct {
	// Name is the cluster label records assigned here will carry.
	Name string

	// Ideal maps feature name to the archetype's reference value.
	Ideal map[string]float64

	// Penalty is a fixed additive objective bias applied when a record
	// is assigned to this cluster. Zero for most clusters; strictly
	// positive for low-quality clusters like "Not Ready" to steer the
	// optimizer away unless no better placement exists.
	Penalty float64
}

// Registry is the immutable profile and weight configuration consumed
// by the distance calculator and the assignment solver.
type Registry struct {
	profiles []Profile
	byName   map[string]int

	// weights is the optional per-feature multiplier table used by the
	// single-profile variant. Features without an entry weigh 1.
	weights map[string]float64
}

// Option applies a configuration option to the Registry.
type Option func(*registryConfig)

type registryConfig struct {
	weights map[string]float64
}

// WithFeatureWeights sets the per-feature multiplier table. Every
// multiplier must be strictly positive and every profile feature must
// have an entry.
func WithFeatureWeights(weights map[string]float64) Option {
	return func(c *registryConfig) {
		c.weights = weights
	}
}

// NewRegistry validates and freezes the profile set. It fails fast,
// before any record is processed, on configuration defects: an empty
// profile set, duplicate names, an empty or inconsistent feature set,
// non-positive weights, negative penalties, or a profile feature absent
// from an explicitly provided weight table.
func NewRegistry(profiles []Profile, opts ...Option) (*Registry, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: no profiles defined", ErrInvalidProfile)
	}

	cfg := &registryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Registry{
		profiles: make([]Profile, 0, len(profiles)),
		byName:   make(map[string]int, len(profiles)),
	}

	for _, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: profile with empty name", ErrInvalidProfile)
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrInvalidProfile, p.Name)
		}
		if len(p.Ideal) == 0 {
			return nil, fmt.Errorf("%w: profile %q has no features", ErrInvalidProfile, p.Name)
		}
		if p.Penalty < 0 {
			return nil, fmt.Errorf("%w: profile %q has negative penalty %v", ErrInvalidProfile, p.Name, p.Penalty)
		}

		// Freeze a private copy so later mutation of the caller's map
		// cannot leak into a running pipeline.
		frozen := Profile{
			Name:    p.Name,
			Ideal:   make(map[string]float64, len(p.Ideal)),
			Penalty: p.Penalty,
		}
		for f, v := range p.Ideal {
			frozen.Ideal[f] = v
		}

		r.byName[p.Name] = len(r.profiles)
		r.profiles = append(r.profiles, frozen)
	}

	// Every profile must define values for the same feature set used in
	// distance computation.
	base := r.profiles[0]
	for _, p := range r.profiles[1:] {
		if len(p.Ideal) != len(base.Ideal) {
			return nil, fmt.Errorf("%w: profile %q feature set differs from %q", ErrFeatureMismatch, p.Name, base.Name)
		}
		for f := range base.Ideal {
			if _, ok := p.Ideal[f]; !ok {
				return nil, fmt.Errorf("%w: profile %q missing feature %q", ErrFeatureMismatch, p.Name, f)
			}
		}
	}

	if cfg.weights != nil {
		r.weights = make(map[string]float64, len(cfg.weights))
		for f, w := range cfg.weights {
			if w <= 0 {
				return nil, fmt.Errorf("%w: weight for feature %q must be positive, got %v", ErrInvalidWeight, f, w)
			}
			r.weights[f] = w
		}
		for f := range base.Ideal {
			if _, ok := r.weights[f]; !ok {
				return nil, fmt.Errorf("%w: feature %q has no weight definition", ErrInvalidWeight, f)
			}
		}
	}

	return r, nil
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Names returns profile names in declaration order. The order is stable
// so variable layout and output columns are deterministic.
func (r *Registry) Names() []string {
	names := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		names[i] = p.Name
	}
	return names
}

// Profiles returns the profiles in declaration order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Lookup returns the profile with the given name.
func (r *Registry) Lookup(name string) (Profile, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

// Weight returns the multiplier for a feature, defaulting to 1 when no
// weight table was provided or the feature has no entry.
func (r *Registry) Weight(feature string) float64 {
	if r.weights == nil {
		return 1
	}
	if w, ok := r.weights[feature]; ok {
		return w
	}
	return 1
}
