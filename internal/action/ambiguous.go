package action

import (
	"fmt"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// AmbiguousError describes a self-contradictory action. Ambiguity is decided
// from the action alone, before touching the grid; the step engine substitutes
// a no-op and flags the step instead of failing it.
type AmbiguousError struct {
	Reason string
}

func (e *AmbiguousError) Error() string { return "ambiguous action: " + e.Reason }

// CheckAmbiguous detects contradictions inside a single action:
// set_bus and change_bus on the same element, redispatch of a
// non-dispatchable generator or beyond its ramp bounds, curtailment of a
// non-renewable, and line-status orders fighting the bus assignment of the
// same line end.
func (a *Action) CheckAmbiguous(s *grid.GridSchema) error {
	if a == nil {
		return nil
	}
	for pos := range a.changeBus {
		if _, both := a.setBus[pos]; both {
			return &AmbiguousError{Reason: fmt.Sprintf("element at position %d is both set and changed", pos)}
		}
	}
	for g, mw := range a.redispatch {
		if !s.GenRedispatchable[g] {
			return &AmbiguousError{Reason: fmt.Sprintf("generator %d is not redispatchable", g)}
		}
		if mw > s.GenMaxRampUp[g] || -mw > s.GenMaxRampDown[g] {
			return &AmbiguousError{Reason: fmt.Sprintf("redispatch %v MW on generator %d exceeds ramp bounds", mw, g)}
		}
	}
	for g := range a.curtail {
		if !s.GenRenewable[g] {
			return &AmbiguousError{Reason: fmt.Sprintf("generator %d is not renewable, cannot curtail", g)}
		}
	}
	for st, mw := range a.storageP {
		if mw > s.StorageMaxAbsorb[st] || -mw > s.StorageMaxProd[st] {
			return &AmbiguousError{Reason: fmt.Sprintf("storage setpoint %v MW on unit %d exceeds power bounds", mw, st)}
		}
	}
	for l, v := range a.setLineStatus {
		orPos, exPos := s.LineOrPos[l], s.LineExPos[l]
		if v == 1 {
			if bus, ok := a.setBus[orPos]; ok && bus == grid.BusDisconnected {
				return &AmbiguousError{Reason: fmt.Sprintf("line %d reconnected while its origin is set to -1", l)}
			}
			if bus, ok := a.setBus[exPos]; ok && bus == grid.BusDisconnected {
				return &AmbiguousError{Reason: fmt.Sprintf("line %d reconnected while its extremity is set to -1", l)}
			}
		} else {
			if bus, ok := a.setBus[orPos]; ok && bus != grid.BusDisconnected {
				return &AmbiguousError{Reason: fmt.Sprintf("line %d disconnected while its origin is assigned a bus", l)}
			}
			if bus, ok := a.setBus[exPos]; ok && bus != grid.BusDisconnected {
				return &AmbiguousError{Reason: fmt.Sprintf("line %d disconnected while its extremity is assigned a bus", l)}
			}
		}
	}
	return nil
}
