package action

import (
	"fmt"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Space builds actions for one grid. The allowed-capability mask is fixed at
// configuration time: asking for a delta outside the mask is a construction
// error, not a legality fault.
type Space struct {
	schema  *grid.GridSchema
	allowed Capability
}

func NewSpace(s *grid.GridSchema, allowed Capability) *Space {
	return &Space{schema: s, allowed: allowed}
}

func (sp *Space) Schema() *grid.GridSchema { return sp.schema }
func (sp *Space) Allowed() Capability      { return sp.allowed }

// NoOp returns the empty action.
func (sp *Space) NoOp() *Action { return &Action{} }

// Make validates a delta against the capability mask and index/value ranges
// and freezes it into an Action. Range violations are construction errors;
// self-contradictory but well-formed deltas pass here and are caught by
// CheckAmbiguous at step time.
func (sp *Space) Make(d Delta) (*Action, error) {
	s := sp.schema
	a := &Action{}

	if len(d.SetLineStatus) > 0 {
		if sp.allowed&CapLineStatus == 0 {
			return nil, fmt.Errorf("action space: line status changes not allowed")
		}
		a.caps |= CapLineStatus
		a.setLineStatus = map[int]int{}
		for l, v := range d.SetLineStatus {
			if l < 0 || l >= s.NLine {
				return nil, fmt.Errorf("action space: line %d out of range", l)
			}
			if v != 1 && v != -1 {
				return nil, fmt.Errorf("action space: line %d status must be +1 or -1, got %d", l, v)
			}
			a.setLineStatus[l] = v
		}
	}

	if len(d.SetBus) > 0 {
		if sp.allowed&CapSetBus == 0 {
			return nil, fmt.Errorf("action space: set_bus not allowed")
		}
		a.caps |= CapSetBus
		a.setBus = map[int]int{}
		for pos, bus := range d.SetBus {
			if pos < 0 || pos >= s.DimTopo {
				return nil, fmt.Errorf("action space: topology position %d out of range", pos)
			}
			if bus != grid.BusDisconnected && bus != grid.Bus1 && bus != grid.Bus2 {
				return nil, fmt.Errorf("action space: bus %d invalid for position %d", bus, pos)
			}
			a.setBus[pos] = bus
		}
	}

	if len(d.ChangeBus) > 0 {
		if sp.allowed&CapChangeBus == 0 {
			return nil, fmt.Errorf("action space: change_bus not allowed")
		}
		a.caps |= CapChangeBus
		a.changeBus = map[int]bool{}
		for _, pos := range d.ChangeBus {
			if pos < 0 || pos >= s.DimTopo {
				return nil, fmt.Errorf("action space: topology position %d out of range", pos)
			}
			a.changeBus[pos] = true
		}
	}

	if len(d.Redispatch) > 0 {
		if sp.allowed&CapRedispatch == 0 {
			return nil, fmt.Errorf("action space: redispatch not allowed")
		}
		a.caps |= CapRedispatch
		a.redispatch = map[int]float64{}
		for g, mw := range d.Redispatch {
			if g < 0 || g >= s.NGen {
				return nil, fmt.Errorf("action space: generator %d out of range", g)
			}
			a.redispatch[g] = mw
		}
	}

	if len(d.Curtail) > 0 {
		if sp.allowed&CapCurtail == 0 {
			return nil, fmt.Errorf("action space: curtailment not allowed")
		}
		a.caps |= CapCurtail
		a.curtail = map[int]float64{}
		for g, ratio := range d.Curtail {
			if g < 0 || g >= s.NGen {
				return nil, fmt.Errorf("action space: generator %d out of range", g)
			}
			if ratio != -1 && (ratio < 0 || ratio > 1) {
				return nil, fmt.Errorf("action space: curtailment ratio %v for generator %d outside [0,1]", ratio, g)
			}
			a.curtail[g] = ratio
		}
	}

	if len(d.StorageP) > 0 {
		if sp.allowed&CapStorage == 0 {
			return nil, fmt.Errorf("action space: storage setpoints not allowed")
		}
		a.caps |= CapStorage
		a.storageP = map[int]float64{}
		for st, mw := range d.StorageP {
			if st < 0 || st >= s.NStorage {
				return nil, fmt.Errorf("action space: storage unit %d out of range", st)
			}
			a.storageP[st] = mw
		}
	}

	if d.RaiseAlarm {
		if sp.allowed&CapAlarm == 0 {
			return nil, fmt.Errorf("action space: alarms not allowed")
		}
		a.caps |= CapAlarm
		a.raiseAlarm = true
	}

	if d.LoadP != nil || d.LoadQ != nil || d.GenP != nil || d.GenV != nil || len(d.Outages) > 0 {
		if sp.allowed&CapInjection == 0 {
			return nil, fmt.Errorf("action space: injections not allowed")
		}
		a.caps |= CapInjection
		if d.LoadP != nil && len(d.LoadP) != s.NLoad {
			return nil, fmt.Errorf("action space: load_p has %d entries, want %d", len(d.LoadP), s.NLoad)
		}
		if d.LoadQ != nil && len(d.LoadQ) != s.NLoad {
			return nil, fmt.Errorf("action space: load_q has %d entries, want %d", len(d.LoadQ), s.NLoad)
		}
		if d.GenP != nil && len(d.GenP) != s.NGen {
			return nil, fmt.Errorf("action space: gen_p has %d entries, want %d", len(d.GenP), s.NGen)
		}
		if d.GenV != nil && len(d.GenV) != s.NGen {
			return nil, fmt.Errorf("action space: gen_v has %d entries, want %d", len(d.GenV), s.NGen)
		}
		a.loadP = copyFloats(d.LoadP)
		a.loadQ = copyFloats(d.LoadQ)
		a.genP = copyFloats(d.GenP)
		a.genV = copyFloats(d.GenV)
		for _, l := range d.Outages {
			if l < 0 || l >= s.NLine {
				return nil, fmt.Errorf("action space: outage line %d out of range", l)
			}
			if a.outages == nil {
				a.outages = map[int]bool{}
			}
			a.outages[l] = true
		}
	}

	return a, nil
}

// DisconnectLine is a convenience for the most common topology action.
func (sp *Space) DisconnectLine(line int) (*Action, error) {
	return sp.Make(Delta{SetLineStatus: map[int]int{line: -1}})
}

// ReconnectLine is the counterpart of DisconnectLine.
func (sp *Space) ReconnectLine(line int) (*Action, error) {
	return sp.Make(Delta{SetLineStatus: map[int]int{line: 1}})
}
