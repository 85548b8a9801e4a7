package env

import (
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/chronics"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Observation is the full snapshot handed to the agent after each step. Every
// slice is an independent copy; mutating an observation never touches the
// environment.
type Observation struct {
	Year         int
	Month        int
	Day          int
	HourOfDay    int
	MinuteOfHour int
	DayOfWeek    int
	Step         int

	TopoVect   grid.TopoVect
	LineStatus []bool

	// Per-line electrics at origin and extremity.
	POr, QOr, VOr, AOr []float64
	PEx, QEx, VEx, AEx []float64
	// Loading ratio per line (flow over thermal limit).
	Rho []float64

	LoadP, LoadQ, LoadV []float64
	GenP, GenQ, GenV    []float64

	TimestepOverflow       []int
	TimeBeforeCooldownLine []int
	TimeBeforeCooldownSub  []int
	// Steps until the next scheduled maintenance per line (-1 none known,
	// 0 under maintenance now) and its duration in steps.
	TimeNextMaintenance     []int
	DurationNextMaintenance []int

	TargetDispatch []float64
	ActualDispatch []float64
	CurtailLimit   []float64
	StorageCharge  []float64
	StoragePower   []float64

	// Attack indicator: line under attack (-1 none) and steps left.
	AttackLine      int
	AttackRemaining int

	AttentionBudget float64
	IsAlarmIllegal  bool

	// Next scheduled injections, present when the environment was built with
	// forecasts enabled and the chronics expose any.
	Forecast *chronics.Forecast
}

func copyInts(v []int) []int {
	return append([]int(nil), v...)
}

func copyBools(v []bool) []bool {
	return append([]bool(nil), v...)
}

func cloneFloats(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// observe assembles the observation from the post-solve backend and the given
// state. Used both by the real step and the Simulate sandbox.
func (e *Environment) observe(bk backendReader, st *State, isAlarmIllegal bool) Observation {
	s := e.schema
	ts := st.Timestamp

	o := Observation{
		Year:         ts.Year(),
		Month:        int(ts.Month()),
		Day:          ts.Day(),
		HourOfDay:    ts.Hour(),
		MinuteOfHour: ts.Minute(),
		DayOfWeek:    int(ts.Weekday()),
		Step:         st.Step,

		TopoVect:   bk.TopoVect().Clone(),
		LineStatus: copyBools(bk.LineStatus()),
		Rho:        cloneFloats(bk.RelativeFlow()),

		TimestepOverflow:       copyInts(st.OverflowSteps),
		TimeBeforeCooldownLine: copyInts(st.LineCooldowns),
		TimeBeforeCooldownSub:  copyInts(st.SubCooldowns),

		TargetDispatch: cloneFloats(st.TargetDispatch),
		ActualDispatch: cloneFloats(st.ActualDispatch),
		CurtailLimit:   cloneFloats(st.CurtailLimit),
		StorageCharge:  cloneFloats(st.StorageCharge),
		StoragePower:   cloneFloats(st.StoragePower),

		AttackLine:      st.AttackLine,
		AttackRemaining: st.AttackRemaining,
		AttentionBudget: st.AttentionBudget.Balance,
		IsAlarmIllegal:  isAlarmIllegal,
	}

	gp, gq, gv := bk.GeneratorsInfo()
	o.GenP, o.GenQ, o.GenV = cloneFloats(gp), cloneFloats(gq), cloneFloats(gv)
	lp, lq, lv := bk.LoadsInfo()
	o.LoadP, o.LoadQ, o.LoadV = cloneFloats(lp), cloneFloats(lq), cloneFloats(lv)
	p, q, v, a := bk.LinesOrInfo()
	o.POr, o.QOr, o.VOr, o.AOr = cloneFloats(p), cloneFloats(q), cloneFloats(v), cloneFloats(a)
	p, q, v, a = bk.LinesExInfo()
	o.PEx, o.QEx, o.VEx, o.AEx = cloneFloats(p), cloneFloats(q), cloneFloats(v), cloneFloats(a)

	forecasts := e.chronics.Forecasts()
	o.TimeNextMaintenance, o.DurationNextMaintenance = maintenanceHorizon(s, st, forecasts)
	if e.withForecast && len(forecasts) > 0 {
		f := forecasts[0]
		o.Forecast = &f
	}
	return o
}

// maintenanceHorizon scans the forecast window for scheduled maintenance.
// A line currently out for maintenance reports 0; otherwise the number of
// steps until its first flagged row, or -1 when none is visible.
func maintenanceHorizon(s *grid.GridSchema, st *State, forecasts []chronics.Forecast) (next, duration []int) {
	next = make([]int, s.NLine)
	duration = make([]int, s.NLine)
	for i := range next {
		next[i] = -1
	}
	for l := 0; l < s.NLine; l++ {
		if st.DisconnectCause[l] == "maintenance" {
			next[l] = 0
			for _, f := range forecasts {
				if len(f.Row.Maintenance) != s.NLine || !f.Row.Maintenance[l] {
					break
				}
				duration[l]++
			}
			continue
		}
		for i, f := range forecasts {
			if len(f.Row.Maintenance) != s.NLine || !f.Row.Maintenance[l] {
				continue
			}
			next[l] = i + 1
			for _, g := range forecasts[i:] {
				if len(g.Row.Maintenance) != s.NLine || !g.Row.Maintenance[l] {
					break
				}
				duration[l]++
			}
			break
		}
	}
	return next, duration
}
