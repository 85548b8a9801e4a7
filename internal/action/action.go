// Package action models the sparse deltas an agent (or the environment itself)
// submits each step. An Action is immutable once built; composition produces a
// new value. There is a single concrete action type: what a given environment
// allows is expressed by the capability mask of its Space, not by subtypes.
package action

import (
	"sort"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

type Capability uint16

const (
	CapLineStatus Capability = 1 << iota
	CapSetBus
	CapChangeBus
	CapRedispatch
	CapCurtail
	CapStorage
	CapAlarm
	CapInjection

	CapTopology = CapLineStatus | CapSetBus | CapChangeBus
	CapAll      = CapTopology | CapRedispatch | CapCurtail | CapStorage | CapAlarm | CapInjection
)

// Delta is the mutable builder input for Space.Make. Fields left zero are
// absent from the resulting action.
type Delta struct {
	// +1 connect, -1 disconnect, keyed by line id.
	SetLineStatus map[int]int
	// Target bus keyed by topology-vector position. -1 disconnects the element.
	SetBus map[int]int
	// Toggle bus 1<->2, keyed by topology-vector position.
	ChangeBus []int
	// Requested MW deviation from schedule, keyed by generator id.
	Redispatch map[int]float64
	// Upper production ratio in [0,1] keyed by renewable generator id;
	// -1 removes a previously set limit.
	Curtail map[int]float64
	// Storage setpoint MW keyed by storage id (positive = charging).
	StorageP map[int]float64

	RaiseAlarm bool

	// Environment-side injections (chronics, opponent, maintenance).
	LoadP, LoadQ []float64
	GenP, GenV   []float64
	// Lines forced out this step.
	Outages []int
}

// Action is an immutable sparse delta.
type Action struct {
	caps Capability

	setLineStatus map[int]int
	setBus        map[int]int
	changeBus     map[int]bool
	redispatch    map[int]float64
	curtail       map[int]float64
	storageP      map[int]float64
	raiseAlarm    bool

	loadP, loadQ []float64
	genP, genV   []float64
	outages      map[int]bool
}

func (a *Action) Caps() Capability { return a.caps }
func (a *Action) RaisesAlarm() bool {
	return a != nil && a.raiseAlarm
}

// IsNoOp reports whether the action changes nothing at all.
func (a *Action) IsNoOp() bool {
	if a == nil {
		return true
	}
	return len(a.setLineStatus) == 0 && len(a.setBus) == 0 && len(a.changeBus) == 0 &&
		len(a.redispatch) == 0 && len(a.curtail) == 0 && len(a.storageP) == 0 &&
		!a.raiseAlarm && a.loadP == nil && a.loadQ == nil && a.genP == nil && a.genV == nil &&
		len(a.outages) == 0
}

func copyIntMap(m map[int]int) map[int]int {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[int]float64) map[int]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyBoolMap(m map[int]bool) map[int]bool {
	if len(m) == 0 {
		return nil
	}
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

// Read accessors return copies: callers may not reach into an action.

func (a *Action) SetLineStatus() map[int]int { return copyIntMap(a.setLineStatus) }
func (a *Action) SetBus() map[int]int        { return copyIntMap(a.setBus) }
func (a *Action) ChangeBus() map[int]bool    { return copyBoolMap(a.changeBus) }
func (a *Action) Redispatch() map[int]float64 {
	return copyFloatMap(a.redispatch)
}
func (a *Action) Curtail() map[int]float64  { return copyFloatMap(a.curtail) }
func (a *Action) StorageP() map[int]float64 { return copyFloatMap(a.storageP) }
func (a *Action) LoadP() []float64          { return copyFloats(a.loadP) }
func (a *Action) LoadQ() []float64          { return copyFloats(a.loadQ) }
func (a *Action) GenP() []float64           { return copyFloats(a.genP) }
func (a *Action) GenV() []float64           { return copyFloats(a.genV) }

// Outages lists lines forced out this step (maintenance, hazards, attacks),
// in ascending order.
func (a *Action) Outages() []int {
	if len(a.outages) == 0 {
		return nil
	}
	out := make([]int, 0, len(a.outages))
	for l := range a.outages {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// LinesTouched returns the set of line ids whose status the action sets,
// in ascending order.
func (a *Action) LinesTouched() []int {
	if len(a.setLineStatus) == 0 {
		return nil
	}
	out := make([]int, 0, len(a.setLineStatus))
	for l := range a.setLineStatus {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// SubsTouched returns the substations whose topology the action reconfigures
// through set_bus or change_bus, in ascending order.
func (a *Action) SubsTouched(s *grid.GridSchema) []int {
	seen := map[int]bool{}
	for pos := range a.setBus {
		if sub := s.SubOfPos(pos); sub >= 0 {
			seen[sub] = true
		}
	}
	for pos := range a.changeBus {
		if sub := s.SubOfPos(pos); sub >= 0 {
			seen[sub] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for sub := range seen {
		out = append(out, sub)
	}
	sort.Ints(out)
	return out
}

// Compose merges two actions, b overriding a wherever both touch the same
// target. It is the single composition algorithm used for every layering in
// the step pipeline (chronics < opponent < agent).
func Compose(a, b *Action) *Action {
	if a == nil {
		a = &Action{}
	}
	if b == nil {
		b = &Action{}
	}
	out := &Action{caps: a.caps | b.caps, raiseAlarm: a.raiseAlarm || b.raiseAlarm}

	out.setLineStatus = copyIntMap(a.setLineStatus)
	for k, v := range b.setLineStatus {
		if out.setLineStatus == nil {
			out.setLineStatus = map[int]int{}
		}
		out.setLineStatus[k] = v
	}
	out.setBus = copyIntMap(a.setBus)
	for k, v := range b.setBus {
		if out.setBus == nil {
			out.setBus = map[int]int{}
		}
		out.setBus[k] = v
	}
	out.changeBus = copyBoolMap(a.changeBus)
	for k, v := range b.changeBus {
		if out.changeBus == nil {
			out.changeBus = map[int]bool{}
		}
		out.changeBus[k] = v
	}
	out.redispatch = copyFloatMap(a.redispatch)
	for k, v := range b.redispatch {
		if out.redispatch == nil {
			out.redispatch = map[int]float64{}
		}
		out.redispatch[k] = v
	}
	out.curtail = copyFloatMap(a.curtail)
	for k, v := range b.curtail {
		if out.curtail == nil {
			out.curtail = map[int]float64{}
		}
		out.curtail[k] = v
	}
	out.storageP = copyFloatMap(a.storageP)
	for k, v := range b.storageP {
		if out.storageP == nil {
			out.storageP = map[int]float64{}
		}
		out.storageP[k] = v
	}

	out.loadP = pickInjection(a.loadP, b.loadP)
	out.loadQ = pickInjection(a.loadQ, b.loadQ)
	out.genP = pickInjection(a.genP, b.genP)
	out.genV = pickInjection(a.genV, b.genV)

	out.outages = copyBoolMap(a.outages)
	for l := range b.outages {
		if out.outages == nil {
			out.outages = map[int]bool{}
		}
		out.outages[l] = true
	}
	return out
}

func pickInjection(a, b []float64) []float64 {
	if b != nil {
		return copyFloats(b)
	}
	return copyFloats(a)
}
