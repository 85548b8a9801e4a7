// Package rules holds the pluggable legality policies. A policy is a pure
// read of the action against the environment state: it never mutates anything,
// and swapping policies never touches the step engine.
package rules

import (
	"fmt"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/action"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// StateView is the read-only slice of environment state a policy may consult.
type StateView interface {
	LineCooldown(line int) int
	SubCooldown(sub int) int
}

// IllegalError carries the reason an action was refused. The step engine
// substitutes a no-op and surfaces the reason through the step info.
type IllegalError struct {
	Reason string
}

func (e *IllegalError) Error() string { return "illegal action: " + e.Reason }

// Checker decides legality for one grid.
type Checker interface {
	Name() string
	// Legal returns nil or an *IllegalError.
	Legal(a *action.Action, s StateView) error
}

// AlwaysLegal accepts everything. Useful for unconstrained experiments.
type AlwaysLegal struct{}

func (AlwaysLegal) Name() string                              { return "always_legal" }
func (AlwaysLegal) Legal(a *action.Action, s StateView) error { return nil }

// DefaultRules is the standard game rule set: at most MaxLineStatusChanged
// line switchings and MaxSubChanged substation reconfigurations per step, and
// none at all on an element whose cooldown has not elapsed. Cooldowns bind the
// agent only; environment-side actions (chronics, opponent) bypass the checker
// entirely.
type DefaultRules struct {
	Schema               *grid.GridSchema
	MaxLineStatusChanged int
	MaxSubChanged        int
}

func (DefaultRules) Name() string { return "default_rules" }

func (r DefaultRules) Legal(a *action.Action, s StateView) error {
	lines := a.LinesTouched()
	if len(lines) > r.MaxLineStatusChanged {
		return &IllegalError{Reason: fmt.Sprintf("%d powerline status changes, at most %d allowed per step",
			len(lines), r.MaxLineStatusChanged)}
	}
	subs := a.SubsTouched(r.Schema)
	if len(subs) > r.MaxSubChanged {
		return &IllegalError{Reason: fmt.Sprintf("%d substations reconfigured, at most %d allowed per step",
			len(subs), r.MaxSubChanged)}
	}
	for _, l := range lines {
		if cd := s.LineCooldown(l); cd > 0 {
			return &IllegalError{Reason: fmt.Sprintf("powerline %d still cooling down for %d steps", l, cd)}
		}
	}
	for _, sub := range subs {
		if cd := s.SubCooldown(sub); cd > 0 {
			return &IllegalError{Reason: fmt.Sprintf("substation %d still cooling down for %d steps", sub, cd)}
		}
	}
	return nil
}
