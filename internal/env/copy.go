package env

import "fmt"

// Copy forks the environment mid-episode: the backend is copied, the state
// cloned, everything else shared. The chronics handler in particular is
// shared, so stepping the copy advances the cursor the original sees too;
// copies are meant for inspection and what-if rollouts on separate scenarios,
// not for lockstep twin runs.
func (e *Environment) Copy() (*Environment, error) {
	if !e.ready {
		return nil, fmt.Errorf("env: cannot copy before Reset")
	}
	bk, err := e.backend.Copy()
	if err != nil {
		return nil, fmt.Errorf("env: copy: %w", err)
	}
	out := *e
	out.backend = bk
	out.state = e.state.Clone()
	out.logger = nil
	return &out, nil
}
