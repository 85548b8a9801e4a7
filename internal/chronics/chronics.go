// Package chronics feeds the engine its exogenous time series: scheduled
// loads, generation, voltage setpoints, maintenance and hazards, one row per
// step. Storage formats live behind the Handler interface; the engine only
// ever asks for the next row.
package chronics

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// ErrEndOfEpisode is returned by LoadNext when the current scenario has no
// more rows. The engine ends the episode without error.
var ErrEndOfEpisode = errors.New("chronics: end of episode")

// Row is one step of exogenous data. Nil slices mean "no schedule for this
// quantity"; maintenance/hazards flag lines forced out during this step.
type Row struct {
	LoadP []float64
	LoadQ []float64
	GenP  []float64
	GenV  []float64

	Maintenance []bool
	Hazards     []bool
}

// Forecast is a future row with its timestamp, served without re-solving.
type Forecast struct {
	At  time.Time
	Row Row
}

// Handler is the consumed chronics contract.
type Handler interface {
	// Initialize pins the element orderings the rows must follow.
	Initialize(loadNames, genNames, lineNames, subNames []string) error
	// NextChronics advances to the next scenario (called on reset).
	NextChronics() error
	// LoadNext returns the next row or ErrEndOfEpisode.
	LoadNext() (Row, error)
	// Forecasts returns the upcoming rows visible from the current cursor.
	Forecasts() []Forecast
	// MaxEpisodeDuration is the scenario length in steps, -1 if unbounded.
	MaxEpisodeDuration() int
	// TimeInterval is the wall-clock duration of one step.
	TimeInterval() time.Duration
	// CheckValidity verifies the data is consistent with the grid shape.
	CheckValidity(s *grid.GridSchema) error
}

func (r *Row) validate(s *grid.GridSchema) error {
	check := func(name string, got, want int) error {
		if got != 0 && got != want {
			return fmt.Errorf("chronics: %s row has %d entries, want %d", name, got, want)
		}
		return nil
	}
	if err := check("load_p", len(r.LoadP), s.NLoad); err != nil {
		return err
	}
	if err := check("load_q", len(r.LoadQ), s.NLoad); err != nil {
		return err
	}
	if err := check("prod_p", len(r.GenP), s.NGen); err != nil {
		return err
	}
	if err := check("prod_v", len(r.GenV), s.NGen); err != nil {
		return err
	}
	if err := check("maintenance", len(r.Maintenance), s.NLine); err != nil {
		return err
	}
	return check("hazards", len(r.Hazards), s.NLine)
}

func cloneRow(r Row) Row {
	out := Row{}
	if r.LoadP != nil {
		out.LoadP = append([]float64(nil), r.LoadP...)
	}
	if r.LoadQ != nil {
		out.LoadQ = append([]float64(nil), r.LoadQ...)
	}
	if r.GenP != nil {
		out.GenP = append([]float64(nil), r.GenP...)
	}
	if r.GenV != nil {
		out.GenV = append([]float64(nil), r.GenV...)
	}
	if r.Maintenance != nil {
		out.Maintenance = append([]bool(nil), r.Maintenance...)
	}
	if r.Hazards != nil {
		out.Hazards = append([]bool(nil), r.Hazards...)
	}
	return out
}
