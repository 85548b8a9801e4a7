package env

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/opponent"
)

// State is the mutable per-episode bookkeeping the step engine carries between
// steps: everything about an environment that is not the backend's physics.
// Cloning a State plus copying the backend yields a complete fork, which is
// how Simulate sandboxes itself.
type State struct {
	Step      int
	Timestamp time.Time
	Done      bool

	Topo grid.TopoVect

	LineCooldowns []int
	SubCooldowns  []int
	// Consecutive steps each line has spent above the soft threshold.
	OverflowSteps []int
	// Why each line is out ("" while connected): "agent", "maintenance",
	// "hazard", "attack", "hard overflow", "soft overflow".
	DisconnectCause []string

	TargetDispatch []float64
	ActualDispatch []float64
	// Production ratio cap per renewable generator, 1 when uncurtailed.
	CurtailLimit []float64

	StorageCharge []float64
	StoragePower  []float64

	// Active attack, if any. AttackLine is -1 when none.
	AttackLine      int
	AttackRemaining int

	OpponentBudget  *opponent.Budget
	AttentionBudget *opponent.Budget

	// Last injections committed to the backend, reused by Simulate when the
	// chronics carry no forecast.
	LastLoadP []float64
	LastLoadQ []float64
	LastGenP  []float64
	LastGenV  []float64
	// Scheduled values before curtailment and dispatch, for rewards.
	ScheduledLoadP []float64
	ScheduledGenP  []float64

	SimCallsThisStep int
}

func newState(s *grid.GridSchema, p *Parameters, start time.Time) *State {
	st := &State{
		Timestamp:       start,
		Topo:            grid.NewTopoVect(s),
		LineCooldowns:   make([]int, s.NLine),
		SubCooldowns:    make([]int, s.NSub),
		OverflowSteps:   make([]int, s.NLine),
		DisconnectCause: make([]string, s.NLine),
		TargetDispatch:  make([]float64, s.NGen),
		ActualDispatch:  make([]float64, s.NGen),
		CurtailLimit:    make([]float64, s.NGen),
		StorageCharge:   make([]float64, s.NStorage),
		StoragePower:    make([]float64, s.NStorage),
		AttackLine:      -1,
	}
	for i := range st.CurtailLimit {
		st.CurtailLimit[i] = 1
	}
	for i := 0; i < s.NStorage; i++ {
		span := s.StorageEMax[i] - s.StorageEMin[i]
		st.StorageCharge[i] = s.StorageEMin[i] + p.InitStorageCapacity*span
	}
	st.OpponentBudget = opponent.NewBudget(p.OpponentInitBudget, p.OpponentMaxBudget,
		p.OpponentBudgetPerStep, p.OpponentAttackCooldown)
	st.AttentionBudget = opponent.NewBudget(p.AttentionInitial, p.AttentionMax,
		p.AttentionIncome, p.AttentionCooldown)
	return st
}

// LineCooldown and SubCooldown satisfy the rules state view.
func (st *State) LineCooldown(line int) int { return st.LineCooldowns[line] }
func (st *State) SubCooldown(sub int) int   { return st.SubCooldowns[sub] }

func (st *State) Clone() *State {
	out := &State{
		Step:             st.Step,
		Timestamp:        st.Timestamp,
		Done:             st.Done,
		Topo:             st.Topo.Clone(),
		LineCooldowns:    append([]int(nil), st.LineCooldowns...),
		SubCooldowns:     append([]int(nil), st.SubCooldowns...),
		OverflowSteps:    append([]int(nil), st.OverflowSteps...),
		DisconnectCause:  append([]string(nil), st.DisconnectCause...),
		TargetDispatch:   append([]float64(nil), st.TargetDispatch...),
		ActualDispatch:   append([]float64(nil), st.ActualDispatch...),
		CurtailLimit:     append([]float64(nil), st.CurtailLimit...),
		StorageCharge:    append([]float64(nil), st.StorageCharge...),
		StoragePower:     append([]float64(nil), st.StoragePower...),
		AttackLine:       st.AttackLine,
		AttackRemaining:  st.AttackRemaining,
		OpponentBudget:   st.OpponentBudget.Clone(),
		AttentionBudget:  st.AttentionBudget.Clone(),
		SimCallsThisStep: st.SimCallsThisStep,
	}
	out.LastLoadP = append([]float64(nil), st.LastLoadP...)
	out.LastLoadQ = append([]float64(nil), st.LastLoadQ...)
	out.LastGenP = append([]float64(nil), st.LastGenP...)
	out.LastGenV = append([]float64(nil), st.LastGenV...)
	out.ScheduledLoadP = append([]float64(nil), st.ScheduledLoadP...)
	out.ScheduledGenP = append([]float64(nil), st.ScheduledGenP...)
	return out
}

// Digest fingerprints the state for determinism checks: two environments that
// ran the same seeded episode must produce identical digests step for step.
func (st *State) Digest() string {
	raw, err := json.Marshal(struct {
		Step            int
		Timestamp       string
		Done            bool
		Topo            grid.TopoVect
		LineCooldowns   []int
		SubCooldowns    []int
		OverflowSteps   []int
		DisconnectCause []string
		TargetDispatch  []float64
		ActualDispatch  []float64
		CurtailLimit    []float64
		StorageCharge   []float64
		AttackLine      int
		AttackRemaining int
		OpponentBalance float64
		AttentionBal    float64
	}{
		Step:            st.Step,
		Timestamp:       st.Timestamp.UTC().Format(time.RFC3339),
		Done:            st.Done,
		Topo:            st.Topo,
		LineCooldowns:   st.LineCooldowns,
		SubCooldowns:    st.SubCooldowns,
		OverflowSteps:   st.OverflowSteps,
		DisconnectCause: st.DisconnectCause,
		TargetDispatch:  st.TargetDispatch,
		ActualDispatch:  st.ActualDispatch,
		CurtailLimit:    st.CurtailLimit,
		StorageCharge:   st.StorageCharge,
		AttackLine:      st.AttackLine,
		AttackRemaining: st.AttackRemaining,
		OpponentBalance: st.OpponentBudget.Balance,
		AttentionBal:    st.AttentionBudget.Balance,
	})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
