// Package reward defines the pluggable reward contract and a few stock
// policies. Reward computation is an external collaborator of the step
// engine: the engine only ever calls Compute with the step outcome flags and
// hands the scalar back to the agent.
package reward

import (
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/action"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// EnvView is the read-only slice of post-step environment state a reward may
// consult.
type EnvView interface {
	Schema() *grid.GridSchema
	RelativeFlow() []float64
	LineStatus() []bool
	// LoadP is the load actually served after the solve.
	LoadP() []float64
	// ScheduledLoadP is what the chronics asked for this step.
	ScheduledLoadP() []float64
	ActualDispatch() []float64
	GenP() []float64
}

// Reward is the consumed contract: lifecycle hooks plus the per-step callable.
type Reward interface {
	Initialize(v EnvView)
	Reset(v EnvView)
	Compute(a *action.Action, v EnvView, hasError, isDone, isIllegal, isAmbiguous bool) float64
}

// Flat pays a constant for every step survived and the minimum on failure.
type Flat struct {
	PerStep float64
	OnError float64
}

func NewFlat() *Flat { return &Flat{PerStep: 1} }

func (r *Flat) Initialize(EnvView) {}
func (r *Flat) Reset(EnvView)      {}
func (r *Flat) Compute(a *action.Action, v EnvView, hasError, isDone, isIllegal, isAmbiguous bool) float64 {
	if hasError {
		return r.OnError
	}
	return r.PerStep
}

// LinesCapacity scores the margin left on every connected line:
// sum over lines of max(0, 1 - rho^2). Full credit when the grid idles,
// nothing for a line at or above its limit.
type LinesCapacity struct{}

func (LinesCapacity) Initialize(EnvView) {}
func (LinesCapacity) Reset(EnvView)      {}
func (LinesCapacity) Compute(a *action.Action, v EnvView, hasError, isDone, isIllegal, isAmbiguous bool) float64 {
	if hasError {
		return 0
	}
	rho := v.RelativeFlow()
	status := v.LineStatus()
	score := 0.0
	for i := range rho {
		if !status[i] {
			continue
		}
		x := rho[i]
		if x > 1 {
			x = 1
		}
		m := 1 - x*x
		if m > 0 {
			score += m
		}
	}
	return score
}

// Resilience weighs load served against line integrity:
// lambda * (served load / scheduled load) + eps * (connected lines / lines).
// Illegal or ambiguous steps that also errored pay the illegal penalty.
type Resilience struct {
	Lambda float64
	Eps    float64

	rewardIllegal float64
	rewardMin     float64
}

func NewResilience() *Resilience {
	return &Resilience{Lambda: 1e3, Eps: 1e3}
}

func (r *Resilience) Initialize(v EnvView) {
	r.rewardIllegal = -1
	r.rewardMin = 0
}

func (r *Resilience) Reset(EnvView) {}

func (r *Resilience) Compute(a *action.Action, v EnvView, hasError, isDone, isIllegal, isAmbiguous bool) float64 {
	if hasError {
		if isIllegal || isAmbiguous {
			return r.rewardIllegal
		}
		if isDone {
			return r.rewardMin
		}
	}
	status := v.LineStatus()
	connected := 0
	for _, up := range status {
		if up {
			connected++
		}
	}
	lc := float64(connected) / float64(len(status))

	ls := 0.0
	scheduled := v.ScheduledLoadP()
	actual := v.LoadP()
	var schedSum, actSum float64
	for i := range scheduled {
		schedSum += scheduled[i]
	}
	for i := range actual {
		actSum += actual[i]
	}
	if schedSum > 0 {
		ls = actSum / schedSum
	}
	return r.Lambda*ls + r.Eps*lc
}

// UnsuppliedLoad is a metric-style reward: the MW of scheduled load the grid
// failed to serve this step, negated so that better is higher.
type UnsuppliedLoad struct{}

func (UnsuppliedLoad) Initialize(EnvView) {}
func (UnsuppliedLoad) Reset(EnvView)      {}
func (UnsuppliedLoad) Compute(a *action.Action, v EnvView, hasError, isDone, isIllegal, isAmbiguous bool) float64 {
	if hasError {
		scheduled := v.ScheduledLoadP()
		total := 0.0
		for _, p := range scheduled {
			total += p
		}
		return -total
	}
	scheduled := v.ScheduledLoadP()
	actual := v.LoadP()
	missing := 0.0
	for i := range scheduled {
		d := scheduled[i] - actual[i]
		if d > 0 {
			missing += d
		}
	}
	return -missing
}
