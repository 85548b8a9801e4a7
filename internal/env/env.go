// Package env hosts the step engine: the single-owner loop that layers
// exogenous events and the agent's action onto the grid, drives the backend
// solve, applies the protection scheme and assembles the observation. One
// environment is owned by one goroutine; there is no locking anywhere in the
// hot path.
package env

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/action"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/backend"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/chronics"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/opponent"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/reward"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/rules"
	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/voltage"
)

// ErrDone is returned by Step once the episode is over. The environment must
// be Reset before stepping again.
var ErrDone = errors.New("env: episode is over, call Reset")

// Disconnect causes recorded per line.
const (
	CauseAgent        = "agent"
	CauseMaintenance  = "maintenance"
	CauseHazard       = "hazard"
	CauseAttack       = "attack"
	CauseHardOverflow = "hard overflow"
	CauseSoftOverflow = "soft overflow"
)

// backendReader is the read-only slice of the backend contract the
// observation assembly needs.
type backendReader interface {
	LineStatus() []bool
	RelativeFlow() []float64
	GeneratorsInfo() (p, q, v []float64)
	LoadsInfo() (p, q, v []float64)
	LinesOrInfo() (p, q, v, a []float64)
	LinesExInfo() (p, q, v, a []float64)
	TopoVect() grid.TopoVect
}

// StepInfo is the side-channel detail of one step: which filters fired, what
// the protection scheme did, the secondary reward values.
type StepInfo struct {
	IsIllegal       bool
	IllegalReason   string
	IsAmbiguous     bool
	AmbiguousReason string
	IsAlarmIllegal  bool

	// HasError reports a failed solve or unsettled cascade; the episode is
	// over when it is set.
	HasError           bool
	DivergingException string

	// Lines forcibly disconnected this step, keyed by line id, with cause.
	DisconnectedLines map[int]string

	// Attack in effect during this step; -1 when none.
	AttackLine      int
	AttackRemaining int

	// Secondary reward values, keyed by the OtherRewards names.
	Rewards map[string]float64
}

// StepRecord is what the optional step logger receives after each real step.
type StepRecord struct {
	EnvName     string
	Step        int
	Timestamp   time.Time
	Reward      float64
	Done        bool
	IsIllegal   bool
	IsAmbiguous bool
	HasError    bool
	// State fingerprint, for replay and determinism audits.
	Digest string
}

// StepLogger receives episode lifecycle events. Implementations decide their
// own durability; the engine never blocks on them beyond the call itself.
type StepLogger interface {
	EpisodeStart(envName string, at time.Time) error
	LogStep(r StepRecord) error
}

// Config assembles an environment. Backend and Chronics are required;
// everything else has a default.
type Config struct {
	Name     string
	GridPath string

	Backend  backend.Backend
	Chronics chronics.Handler

	Params *Parameters
	// Capabilities granted to the agent. Zero means everything except
	// injections; injections are stripped regardless, they belong to the
	// environment side.
	AgentCaps action.Capability

	Rules        rules.Checker
	Reward       reward.Reward
	OtherRewards map[string]reward.Reward
	Voltage      voltage.Controller
	Opponent     opponent.Opponent

	// Per-line thermal limits overriding the grid file's.
	ThermalLimits []float64
	// Attach the next forecast row to each observation.
	WithForecast bool

	Logger StepLogger
	Seed   int64
	// Wall-clock start of episodes; zero value picks a fixed default so
	// that runs stay reproducible.
	Start time.Time
}

// Environment is the step engine. Not safe for concurrent use: one goroutine
// owns it from New to Close.
type Environment struct {
	name     string
	gridPath string

	backend  backend.Backend
	schema   *grid.GridSchema
	chronics chronics.Handler
	params   *Parameters
	rules    rules.Checker
	voltage  voltage.Controller
	opp      opponent.Opponent
	logger   StepLogger

	rewardFn     reward.Reward
	otherRewards map[string]reward.Reward
	otherNames   []string
	rewardInit   bool

	agentSpace *action.Space
	envSpace   *action.Space

	state    *State
	interval time.Duration
	start    time.Time
	seed     int64
	maxSteps int

	withForecast bool
	ready        bool
}

// New wires and validates an environment. All configuration errors surface
// here, eagerly; a constructed environment never fails for a config reason.
func New(cfg Config) (*Environment, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("env: no backend configured")
	}
	if cfg.Chronics == nil {
		return nil, fmt.Errorf("env: no chronics configured")
	}

	p := cfg.Params
	if p == nil {
		p = DefaultParameters()
	} else {
		p = p.clone()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Backend.Attach(); err != nil {
		return nil, err
	}
	if cfg.GridPath != "" {
		if err := cfg.Backend.LoadGrid(cfg.GridPath); err != nil {
			cfg.Backend.Release()
			return nil, err
		}
	}
	schema := cfg.Backend.Schema()
	if schema == nil {
		cfg.Backend.Release()
		return nil, fmt.Errorf("env: backend has no grid loaded and no grid path was given")
	}
	if cfg.ThermalLimits != nil {
		if err := cfg.Backend.SetThermalLimit(cfg.ThermalLimits); err != nil {
			cfg.Backend.Release()
			return nil, err
		}
	}

	if err := cfg.Chronics.Initialize(schema.LoadName, schema.GenName, schema.LineName, schema.SubName); err != nil {
		cfg.Backend.Release()
		return nil, err
	}
	if err := cfg.Chronics.CheckValidity(schema); err != nil {
		cfg.Backend.Release()
		return nil, err
	}

	e := &Environment{
		name:         cfg.Name,
		gridPath:     cfg.GridPath,
		backend:      cfg.Backend,
		schema:       schema,
		chronics:     cfg.Chronics,
		params:       p,
		voltage:      cfg.Voltage,
		opp:          cfg.Opponent,
		logger:       cfg.Logger,
		rewardFn:     cfg.Reward,
		rules:        cfg.Rules,
		interval:     cfg.Chronics.TimeInterval(),
		seed:         cfg.Seed,
		maxSteps:     -1,
		withForecast: cfg.WithForecast,
		start:        cfg.Start,
	}
	if e.name == "" {
		e.name = "env"
	}
	if e.start.IsZero() {
		e.start = time.Date(2019, time.January, 6, 0, 0, 0, 0, time.UTC)
	}
	if e.rules == nil {
		e.rules = rules.DefaultRules{
			Schema:               schema,
			MaxLineStatusChanged: p.MaxLineStatusChanged,
			MaxSubChanged:        p.MaxSubChanged,
		}
	}
	if e.rewardFn == nil {
		e.rewardFn = reward.NewFlat()
	}
	if e.voltage == nil {
		e.voltage = voltage.FromChronics{}
	}
	if e.opp == nil {
		e.opp = opponent.Never{}
	}
	if err := e.opp.Init(schema); err != nil {
		cfg.Backend.Release()
		return nil, err
	}
	e.opp.Seed(cfg.Seed)

	caps := cfg.AgentCaps
	if caps == 0 {
		caps = action.CapAll
	}
	caps &^= action.CapInjection
	e.agentSpace = action.NewSpace(schema, caps)
	e.envSpace = action.NewSpace(schema, action.CapAll)

	if len(cfg.OtherRewards) > 0 {
		e.otherRewards = cfg.OtherRewards
		for name := range cfg.OtherRewards {
			e.otherNames = append(e.otherNames, name)
		}
		sort.Strings(e.otherNames)
	}
	return e, nil
}

func (e *Environment) Name() string               { return e.name }
func (e *Environment) Schema() *grid.GridSchema   { return e.schema }
func (e *Environment) ActionSpace() *action.Space { return e.agentSpace }
func (e *Environment) Parameters() Parameters     { return *e.params }
func (e *Environment) CurrentStep() int           { return e.state.Step }

// Seed reseeds the opponent; takes effect from the next Reset.
func (e *Environment) Seed(seed int64) {
	e.seed = seed
	e.opp.Seed(seed)
}

// SetMaxSteps truncates episodes after n steps; n < 0 removes the cap.
func (e *Environment) SetMaxSteps(n int) { e.maxSteps = n }

// MaxEpisodeDuration is the episode length in steps: the chronics length,
// shortened by SetMaxSteps. -1 means unbounded.
func (e *Environment) MaxEpisodeDuration() int {
	d := e.chronics.MaxEpisodeDuration()
	if e.maxSteps >= 0 && (d < 0 || e.maxSteps < d) {
		return e.maxSteps
	}
	return d
}

// Digest fingerprints the current state, for determinism audits.
func (e *Environment) Digest() string {
	if e.state == nil {
		return ""
	}
	return e.state.Digest()
}

// Close releases the backend. The environment is unusable afterwards.
func (e *Environment) Close() {
	e.backend.Release()
	e.ready = false
}

// Reset starts the next scenario: rewinds the backend, rebuilds the episode
// state, commits the first row of injections and solves once. The returned
// observation is the episode's step 0.
func (e *Environment) Reset() (Observation, error) {
	if err := e.chronics.NextChronics(); err != nil {
		return Observation{}, err
	}
	if err := e.backend.Reset(e.gridPath); err != nil {
		return Observation{}, err
	}
	e.opp.Reset()
	e.opp.Seed(e.seed)

	st := newState(e.schema, e.params, e.start)
	row, err := e.chronics.LoadNext()
	if err != nil {
		return Observation{}, fmt.Errorf("env: scenario has no data: %w", err)
	}

	d := &backend.Delta{
		TopoVect: st.Topo,
		LoadP:    row.LoadP,
		LoadQ:    row.LoadQ,
		GenP:     row.GenP,
		GenV:     row.GenV,
	}
	if err := e.backend.ApplyAction(d); err != nil {
		return Observation{}, err
	}
	converged, err := e.backend.Solve()
	if err != nil {
		return Observation{}, err
	}
	if !converged {
		return Observation{}, fmt.Errorf("env: power flow diverges on the initial grid state")
	}

	st.LastLoadP = cloneFloats(row.LoadP)
	st.LastLoadQ = cloneFloats(row.LoadQ)
	st.LastGenP = cloneFloats(row.GenP)
	st.LastGenV = cloneFloats(row.GenV)
	st.ScheduledLoadP = cloneFloats(row.LoadP)
	st.ScheduledGenP = cloneFloats(row.GenP)
	e.state = st
	e.ready = true

	view := &stepView{schema: e.schema, bk: e.backend, st: st}
	if !e.rewardInit {
		e.rewardFn.Initialize(view)
		for _, name := range e.otherNames {
			e.otherRewards[name].Initialize(view)
		}
		e.rewardInit = true
	}
	e.rewardFn.Reset(view)
	for _, name := range e.otherNames {
		e.otherRewards[name].Reset(view)
	}

	if e.logger != nil {
		if err := e.logger.EpisodeStart(e.name, st.Timestamp); err != nil {
			return Observation{}, fmt.Errorf("env: step logger: %w", err)
		}
	}
	return e.observe(e.backend, st, false), nil
}

// Step advances the simulation by one timestep. The error return is reserved
// for contract violations and for stepping a finished episode (ErrDone);
// in-episode failures (divergence, cascade) come back as done=true with
// HasError set in the info, never as an error.
func (e *Environment) Step(a *action.Action) (Observation, float64, bool, StepInfo, error) {
	if !e.ready {
		return Observation{}, 0, false, StepInfo{}, fmt.Errorf("env: Reset must be called before Step")
	}
	if e.state.Done {
		return Observation{}, 0, true, StepInfo{}, ErrDone
	}
	row, rowErr := e.chronics.LoadNext()
	obs, rew, done, info, err := e.stepCore(e.backend, e.state, a, row, rowErr, true)
	if err != nil {
		return obs, rew, done, info, err
	}
	if e.logger != nil {
		rec := StepRecord{
			EnvName:     e.name,
			Step:        e.state.Step,
			Timestamp:   e.state.Timestamp,
			Reward:      rew,
			Done:        done,
			IsIllegal:   info.IsIllegal,
			IsAmbiguous: info.IsAmbiguous,
			HasError:    info.HasError,
			Digest:      e.state.Digest(),
		}
		if err := e.logger.LogStep(rec); err != nil {
			return obs, rew, done, info, fmt.Errorf("env: step logger: %w", err)
		}
	}
	return obs, rew, done, info, nil
}

// Simulate forecasts the outcome of an action without touching the real
// episode: it forks the state, copies the backend and runs one step against
// the next forecast row (falling back to the last committed injections when
// the chronics carry no forecast). No opponent moves in the fork.
func (e *Environment) Simulate(a *action.Action) (Observation, float64, bool, StepInfo, error) {
	if !e.ready {
		return Observation{}, 0, false, StepInfo{}, fmt.Errorf("env: Reset must be called before Simulate")
	}
	if e.state.Done {
		return Observation{}, 0, true, StepInfo{}, ErrDone
	}
	if e.params.MaxSimulatePerStep >= 0 && e.state.SimCallsThisStep >= e.params.MaxSimulatePerStep {
		return Observation{}, 0, false, StepInfo{}, fmt.Errorf("env: simulate quota of %d per step exhausted", e.params.MaxSimulatePerStep)
	}
	e.state.SimCallsThisStep++

	bk, err := e.backend.Copy()
	if err != nil {
		return Observation{}, 0, false, StepInfo{}, fmt.Errorf("env: simulate: %w", err)
	}
	st := e.state.Clone()

	var row chronics.Row
	if f := e.chronics.Forecasts(); len(f) > 0 {
		row = f[0].Row
	} else {
		row = chronics.Row{
			LoadP: st.LastLoadP,
			LoadQ: st.LastLoadQ,
			GenP:  st.LastGenP,
			GenV:  st.LastGenV,
		}
	}
	return e.stepCore(bk, st, a, row, nil, false)
}

// stepCore is the shared step pipeline. bk and st are the real backend and
// state for Step, independent forks for Simulate.
func (e *Environment) stepCore(bk backend.Backend, st *State, agent *action.Action, row chronics.Row, rowErr error, real bool) (Observation, float64, bool, StepInfo, error) {
	s := e.schema
	info := StepInfo{AttackLine: -1, DisconnectedLines: map[int]string{}}

	if agent == nil {
		agent = e.agentSpace.NoOp()
	}

	// Legality and ambiguity filter. A refused action is replaced by the
	// no-op; the step always proceeds.
	if err := agent.CheckAmbiguous(s); err != nil {
		info.IsAmbiguous = true
		info.AmbiguousReason = err.Error()
		agent = e.agentSpace.NoOp()
	} else if err := e.rules.Legal(agent, st); err != nil {
		info.IsIllegal = true
		info.IllegalReason = err.Error()
		agent = e.agentSpace.NoOp()
	}
	if agent.RaisesAlarm() {
		if !e.params.HasAttentionBudget || !st.AttentionBudget.Spend(e.params.AlarmCost) {
			info.IsAlarmIllegal = true
		}
	}

	// Scenario exhausted: the episode ends cleanly, nothing to solve.
	if rowErr != nil {
		if errors.Is(rowErr, chronics.ErrEndOfEpisode) {
			st.Done = true
			view := &stepView{schema: s, bk: bk, st: st}
			rew := e.rewardFn.Compute(agent, view, false, true, info.IsIllegal, info.IsAmbiguous)
			e.computeOtherRewards(&info, agent, view, false, true)
			return e.observe(bk, st, info.IsAlarmIllegal), rew, true, info, nil
		}
		return Observation{}, 0, false, info, rowErr
	}

	// Exogenous layer: chronics injections, maintenance/hazards, opponent.
	outageCause := map[int]string{}
	for l, m := range row.Maintenance {
		if m {
			outageCause[l] = CauseMaintenance
		}
	}
	for l, h := range row.Hazards {
		if h {
			outageCause[l] = CauseHazard
		}
	}
	if real && st.AttackLine < 0 {
		if st.OpponentBudget.CanSpend(e.params.OpponentAttackCost) {
			if atk := e.opp.Attack(st.Topo.LineStatus(s)); atk != nil {
				st.OpponentBudget.Debit(e.params.OpponentAttackCost)
				st.AttackLine = atk.Line
				st.AttackRemaining = atk.Duration
			}
		}
	}
	if st.AttackLine >= 0 {
		outageCause[st.AttackLine] = CauseAttack
		info.AttackLine = st.AttackLine
		info.AttackRemaining = st.AttackRemaining
	}
	envDelta := action.Delta{
		LoadP: row.LoadP,
		LoadQ: row.LoadQ,
		GenP:  row.GenP,
		GenV:  row.GenV,
	}
	for l := range outageCause {
		envDelta.Outages = append(envDelta.Outages, l)
	}
	envAct, err := e.envSpace.Make(envDelta)
	if err != nil {
		return Observation{}, 0, false, info, err
	}
	composed := action.Compose(envAct, agent)

	// Voltage control.
	genV := e.voltage.FixVoltage(composed, row.GenV)
	if genV == nil {
		genV = composed.GenV()
	}

	// Dispatch: accumulate targets, cap renewables, drive storage, balance.
	for g, mw := range composed.Redispatch() {
		st.TargetDispatch[g] += mw
	}
	for g, ratio := range composed.Curtail() {
		if ratio < 0 {
			st.CurtailLimit[g] = 1
		} else {
			st.CurtailLimit[g] = ratio
		}
	}
	genP := composed.GenP()
	if genP == nil {
		genP = cloneFloats(st.LastGenP)
	}
	loadP := composed.LoadP()
	if loadP == nil {
		loadP = cloneFloats(st.LastLoadP)
	}
	loadQ := composed.LoadQ()
	if loadQ == nil {
		loadQ = cloneFloats(st.LastLoadQ)
	}
	st.ScheduledLoadP = cloneFloats(loadP)
	st.ScheduledGenP = cloneFloats(genP)

	required := 0.0
	if genP != nil {
		required += applyCurtailment(s, st, genP)
	}
	required += applyStorage(s, e.params, st, composed.StorageP(), e.interval.Hours())
	if genP != nil {
		st.ActualDispatch = solveDispatch(s, e.params, st.ActualDispatch, st.TargetDispatch, genP, required)
		for i := range genP {
			genP[i] += st.ActualDispatch[i]
		}
	}

	// Topology: agent orders first, forced outages override them.
	topo := st.Topo.Clone()
	touchedLines := map[int]bool{}
	touchedSubs := map[int]bool{}
	for l, v := range composed.SetLineStatus() {
		switch {
		case v < 0 && topo.LineConnected(s, l):
			topo.DisconnectLine(s, l)
			st.DisconnectCause[l] = CauseAgent
			touchedLines[l] = true
		case v > 0 && !topo.LineConnected(s, l):
			topo.ConnectLine(s, l)
			st.DisconnectCause[l] = ""
			touchedLines[l] = true
		}
	}
	for pos, bus := range composed.SetBus() {
		if topo[pos] != bus {
			topo[pos] = bus
			if sub := s.SubOfPos(pos); sub >= 0 {
				touchedSubs[sub] = true
			}
		}
	}
	for pos := range composed.ChangeBus() {
		switch topo[pos] {
		case grid.Bus1:
			topo[pos] = grid.Bus2
		case grid.Bus2:
			topo[pos] = grid.Bus1
		default:
			continue
		}
		if sub := s.SubOfPos(pos); sub >= 0 {
			touchedSubs[sub] = true
		}
	}
	for l, cause := range outageCause {
		if topo.LineConnected(s, l) || st.DisconnectCause[l] == "" {
			st.DisconnectCause[l] = cause
		}
		topo.DisconnectLine(s, l)
		touchedLines[l] = true
		info.DisconnectedLines[l] = cause
	}
	st.Topo = topo

	if err := bk.ApplyAction(&backend.Delta{
		TopoVect: topo,
		LoadP:    loadP,
		LoadQ:    loadQ,
		GenP:     genP,
		GenV:     genV,
	}); err != nil {
		return Observation{}, 0, false, info, err
	}

	// Solve, then run the protection scheme: hard trips immediately, soft
	// overflows trip once their timer expires, repeated until the grid
	// settles or diverges.
	converged, err := bk.Solve()
	if err != nil {
		return Observation{}, 0, false, info, err
	}
	gameOver := false
	if !converged {
		gameOver = true
		info.HasError = true
		info.DivergingException = "power flow diverged"
	} else {
		rho := bk.RelativeFlow()
		status := bk.LineStatus()
		for i := range rho {
			if status[i] && rho[i] > e.params.SoftOverflowThreshold {
				st.OverflowSteps[i]++
			} else {
				st.OverflowSteps[i] = 0
			}
		}
		for iter := 0; iter < e.params.MaxCascadeIterations; iter++ {
			trips := e.linesToTrip(rho, status, st)
			if len(trips) == 0 {
				break
			}
			for _, t := range trips {
				st.Topo.DisconnectLine(s, t.line)
				st.DisconnectCause[t.line] = t.cause
				st.OverflowSteps[t.line] = 0
				touchedLines[t.line] = true
				info.DisconnectedLines[t.line] = t.cause
			}
			if err := bk.ApplyAction(&backend.Delta{TopoVect: st.Topo}); err != nil {
				return Observation{}, 0, false, info, err
			}
			converged, err = bk.Solve()
			if err != nil {
				return Observation{}, 0, false, info, err
			}
			if !converged {
				gameOver = true
				info.HasError = true
				info.DivergingException = "power flow diverged during cascading failure"
				break
			}
			rho = bk.RelativeFlow()
			status = bk.LineStatus()
		}
		if !gameOver && len(e.linesToTrip(rho, status, st)) > 0 {
			gameOver = true
			info.HasError = true
			info.DivergingException = "cascading failure did not settle"
		}
	}

	// Cooldown and budget decay, then re-arm cooldowns on everything
	// reconfigured or tripped this step.
	for i := range st.LineCooldowns {
		if st.LineCooldowns[i] > 0 {
			st.LineCooldowns[i]--
		}
	}
	for i := range st.SubCooldowns {
		if st.SubCooldowns[i] > 0 {
			st.SubCooldowns[i]--
		}
	}
	for l := range touchedLines {
		st.LineCooldowns[l] = e.params.CooldownLine
	}
	for sub := range touchedSubs {
		st.SubCooldowns[sub] = e.params.CooldownSub
	}
	st.OpponentBudget.Tick()
	if e.params.HasAttentionBudget {
		st.AttentionBudget.Tick()
	}
	if st.AttackLine >= 0 {
		st.AttackRemaining--
		if st.AttackRemaining <= 0 {
			st.AttackLine = -1
			st.AttackRemaining = 0
			st.OpponentBudget.StartCooldown()
		}
	}

	st.Step++
	st.Timestamp = st.Timestamp.Add(e.interval)
	st.SimCallsThisStep = 0
	st.LastLoadP = loadP
	st.LastLoadQ = loadQ
	st.LastGenP = cloneFloats(st.ScheduledGenP)
	if row.GenV != nil {
		st.LastGenV = cloneFloats(row.GenV)
	}
	if gameOver {
		st.Done = true
	}
	if e.maxSteps >= 0 && st.Step >= e.maxSteps {
		st.Done = true
	}

	view := &stepView{schema: s, bk: bk, st: st}
	rew := e.rewardFn.Compute(agent, view, info.HasError, st.Done, info.IsIllegal, info.IsAmbiguous)
	e.computeOtherRewards(&info, agent, view, info.HasError, st.Done)
	return e.observe(bk, st, info.IsAlarmIllegal), rew, st.Done, info, nil
}

type tripOrder struct {
	line  int
	cause string
}

// linesToTrip applies the two thresholds to the current flows. Ordered by
// line id so that cascades are reproducible.
func (e *Environment) linesToTrip(rho []float64, status []bool, st *State) []tripOrder {
	if e.params.NoOverflowDisconnection {
		return nil
	}
	var out []tripOrder
	for i := range rho {
		if !status[i] {
			continue
		}
		switch {
		case rho[i] >= e.params.HardOverflowThreshold:
			out = append(out, tripOrder{line: i, cause: CauseHardOverflow})
		case st.OverflowSteps[i] > e.params.OverflowTimestepsAllowed:
			out = append(out, tripOrder{line: i, cause: CauseSoftOverflow})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].line < out[b].line })
	return out
}

func (e *Environment) computeOtherRewards(info *StepInfo, a *action.Action, v reward.EnvView, hasError, isDone bool) {
	if len(e.otherNames) == 0 {
		return
	}
	info.Rewards = make(map[string]float64, len(e.otherNames))
	for _, name := range e.otherNames {
		info.Rewards[name] = e.otherRewards[name].Compute(a, v, hasError, isDone, info.IsIllegal, info.IsAmbiguous)
	}
}

// stepView adapts the post-step backend and state to the reward contract.
type stepView struct {
	schema *grid.GridSchema
	bk     backendReader
	st     *State
}

func (v *stepView) Schema() *grid.GridSchema { return v.schema }
func (v *stepView) RelativeFlow() []float64  { return v.bk.RelativeFlow() }
func (v *stepView) LineStatus() []bool       { return v.bk.LineStatus() }
func (v *stepView) LoadP() []float64 {
	p, _, _ := v.bk.LoadsInfo()
	return p
}
func (v *stepView) ScheduledLoadP() []float64 { return v.st.ScheduledLoadP }
func (v *stepView) ActualDispatch() []float64 { return v.st.ActualDispatch }
func (v *stepView) GenP() []float64 {
	p, _, _ := v.bk.GeneratorsInfo()
	return p
}
