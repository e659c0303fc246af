package adfa

import (
	"fmt"
	"io"
)

// BaseStatePolicy tunes base-state selection. It only trades code size for
// dispatch depth; transitions are equivalent under every policy.
type BaseStatePolicy struct {
	// MinSavedSpans is how many spans a state must save to delegate.
	MinSavedSpans int `yaml:"min_saved_spans"`
	// MaxDeltaSpans caps the spans a delegating state keeps (0 = no cap).
	MaxDeltaSpans int `yaml:"max_delta_spans"`
	// MinSharers is how many states must delegate to a base to keep it.
	MinSharers int `yaml:"min_sharers"`
}

// Options controls the pipeline.
type Options struct {
	// SplitStates splits fallback states into a save part and a move part.
	SplitStates bool `yaml:"split_states"`
	// BaseStates lets states delegate shared transitions to a base state.
	BaseStates bool `yaml:"base_states"`
	// Bitmaps builds the delegation bitmap (needs BaseStates).
	Bitmaps bool `yaml:"bitmaps"`
	// HoistTags moves shared tag commands (and skips) onto states.
	HoistTags bool `yaml:"hoist_tags"`
	// EagerSkip consumes input on state entry instead of on transitions.
	EagerSkip bool `yaml:"eager_skip"`
	// Lookahead runs transition tags before the character is consumed.
	Lookahead bool `yaml:"lookahead"`
	// LegacyCtxMarker allows the single context marker for automata whose
	// only tags are trailing contexts.
	LegacyCtxMarker bool `yaml:"legacy_ctxmarker"`
	// TagPrefix prefixes tag variable names.
	TagPrefix string `yaml:"tag_prefix"`

	BasePolicy BaseStatePolicy `yaml:"base_policy"`

	Verbose   bool      `yaml:"verbose"`
	LogOutput io.Writer `yaml:"-"`
}

// DefaultOptions returns the options of a regular build.
func DefaultOptions() Options {
	return Options{
		SplitStates: true,
		BaseStates:  true,
		HoistTags:   true,
		Lookahead:   true,
		TagPrefix:   "yyt",
		BasePolicy: BaseStatePolicy{
			MinSavedSpans: 1,
			MinSharers:    1,
		},
	}
}

// Validate checks that the options are consistent.
func (o Options) Validate() error {
	if o.EagerSkip && !o.Lookahead {
		return fmt.Errorf("eager skip requires lookahead tags")
	}
	if o.Bitmaps && !o.BaseStates {
		return fmt.Errorf("bitmaps require base states")
	}
	if o.TagPrefix == "" {
		return fmt.Errorf("tag prefix cannot be empty")
	}
	p := o.BasePolicy
	if p.MinSavedSpans < 0 || p.MaxDeltaSpans < 0 || p.MinSharers < 0 {
		return fmt.Errorf("base state policy values cannot be negative")
	}
	return nil
}
