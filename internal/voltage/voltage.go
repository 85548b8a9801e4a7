// Package voltage holds the pluggable voltage-control policy. A controller
// only ever adjusts generator voltage setpoints; active/reactive power and
// topology are out of its reach by contract.
package voltage

import "github.com/AlexZhaoZt/Grid2Op-Resilience/internal/action"

// Controller produces the generator voltage setpoints for the coming solve.
// composed is the fully layered action for this step, chronicsV the scheduled
// voltages from the chronics (nil when the chronics carry none). A nil return
// leaves the backend's current setpoints untouched.
type Controller interface {
	FixVoltage(composed *action.Action, chronicsV []float64) []float64
}

// FromChronics follows the scheduled voltages verbatim, the standard
// controller for file-driven episodes.
type FromChronics struct{}

func (FromChronics) FixVoltage(composed *action.Action, chronicsV []float64) []float64 {
	if chronicsV == nil {
		return nil
	}
	return append([]float64(nil), chronicsV...)
}
