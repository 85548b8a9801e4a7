package env

import "github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"

// solveDispatch balances the dispatch vector so that its sum equals required
// (MW the dispatchable fleet must add on top of schedule: curtailment
// shortfall plus net storage draw), subject to per-generator physics:
// pmin/pmax around the scheduled production and ramp limits around last
// step's dispatch. Runs a bounded fixed-point redistribution; when the
// iteration budget runs out the result is clipped and the residual accepted.
func solveDispatch(s *grid.GridSchema, p *Parameters, prevActual, target, sched []float64, required float64) []float64 {
	n := s.NGen
	lo := make([]float64, n)
	hi := make([]float64, n)
	out := make([]float64, n)

	for i := 0; i < n; i++ {
		if !s.GenRedispatchable[i] {
			continue
		}
		lo[i] = s.GenPMin[i] - sched[i]
		if r := prevActual[i] - s.GenMaxRampDown[i]; r > lo[i] {
			lo[i] = r
		}
		hi[i] = s.GenPMax[i] - sched[i]
		if r := prevActual[i] + s.GenMaxRampUp[i]; r < hi[i] {
			hi[i] = r
		}
		if lo[i] > hi[i] {
			lo[i] = hi[i]
		}
		out[i] = clip(target[i], lo[i], hi[i])
	}

	// Fast path: nothing asked for and nothing to compensate.
	if required == 0 {
		active := false
		for i := 0; i < n; i++ {
			if abs(target[i]) > p.TolPoly || abs(prevActual[i]) > p.TolPoly {
				active = true
				break
			}
		}
		if !active {
			return out
		}
	}

	for iter := 0; iter < p.MaxRedispatchIterations; iter++ {
		residual := required
		for i := 0; i < n; i++ {
			residual -= out[i]
		}
		if abs(residual) < p.EpsilonPoly {
			break
		}
		headroom := 0.0
		for i := 0; i < n; i++ {
			if !s.GenRedispatchable[i] {
				continue
			}
			if residual > 0 {
				headroom += hi[i] - out[i]
			} else {
				headroom += out[i] - lo[i]
			}
		}
		if headroom <= 0 {
			break
		}
		for i := 0; i < n; i++ {
			if !s.GenRedispatchable[i] {
				continue
			}
			var head float64
			if residual > 0 {
				head = hi[i] - out[i]
			} else {
				head = out[i] - lo[i]
			}
			out[i] = clip(out[i]+residual*head/headroom, lo[i], hi[i])
		}
	}
	return out
}

// applyStorage turns the per-step setpoints into feasible storage powers and
// advances the charge. Positive power charges the unit (extra draw on the
// grid). Returns the net MW the dispatchable fleet must supply.
func applyStorage(s *grid.GridSchema, p *Parameters, st *State, setpoints map[int]float64, dtHours float64) float64 {
	net := 0.0
	for i := 0; i < s.NStorage; i++ {
		want := setpoints[i]
		want = clip(want, -s.StorageMaxProd[i], s.StorageMaxAbsorb[i])
		if dtHours > 0 {
			// Keep the charge inside its energy bounds.
			maxCharge := (s.StorageEMax[i] - st.StorageCharge[i]) / dtHours
			maxDischarge := (st.StorageCharge[i] - s.StorageEMin[i]) / dtHours
			want = clip(want, -maxDischarge, maxCharge)
		}
		st.StoragePower[i] = want
		st.StorageCharge[i] += want * dtHours
		if p.ActivateStorageLoss {
			st.StorageCharge[i] -= s.StorageLossMW[i] * dtHours
			if st.StorageCharge[i] < s.StorageEMin[i] {
				st.StorageCharge[i] = s.StorageEMin[i]
			}
		}
		net += want
	}
	return net
}

// applyCurtailment caps renewable production at limit*pmax and returns the
// MW shaved off the schedule.
func applyCurtailment(s *grid.GridSchema, st *State, genP []float64) float64 {
	shaved := 0.0
	for i := 0; i < s.NGen; i++ {
		if !s.GenRenewable[i] || st.CurtailLimit[i] >= 1 {
			continue
		}
		cap := st.CurtailLimit[i] * s.GenPMax[i]
		if genP[i] > cap {
			shaved += genP[i] - cap
			genP[i] = cap
		}
	}
	return shaved
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
