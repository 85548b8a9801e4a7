package env

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Parameters are the game-rule and solver knobs of an environment. Loaded
// from yaml, overridable per deployment through GRIDSIM_* environment
// variables, validated once at construction and immutable afterwards.
type Parameters struct {
	// When set, lines are never disconnected for overflowing (debug aid).
	NoOverflowDisconnection bool `yaml:"no_overflow_disconnection" env:"GRIDSIM_NO_OVERFLOW_DISCONNECTION"`
	// Consecutive steps a line may sit above the soft threshold before
	// it trips.
	OverflowTimestepsAllowed int `yaml:"nb_timestep_overflow_allowed" env:"GRIDSIM_NB_TIMESTEP_OVERFLOW_ALLOWED"`
	// Steps a line/substation stays locked after a reconfiguration.
	CooldownLine int `yaml:"cooldown_line" env:"GRIDSIM_COOLDOWN_LINE"`
	CooldownSub  int `yaml:"cooldown_sub" env:"GRIDSIM_COOLDOWN_SUB"`
	// rho at which a line trips immediately, and the sustained threshold
	// that arms the overflow timer.
	HardOverflowThreshold float64 `yaml:"hard_overflow_threshold" env:"GRIDSIM_HARD_OVERFLOW_THRESHOLD"`
	SoftOverflowThreshold float64 `yaml:"soft_overflow_threshold" env:"GRIDSIM_SOFT_OVERFLOW_THRESHOLD"`
	// Per-step action limits enforced by the default rules.
	MaxLineStatusChanged int `yaml:"max_line_status_changed" env:"GRIDSIM_MAX_LINE_STATUS_CHANGED"`
	MaxSubChanged        int `yaml:"max_sub_changed" env:"GRIDSIM_MAX_SUB_CHANGED"`
	// Cap on forced-disconnection rounds after a solve.
	MaxCascadeIterations int `yaml:"max_cascade_iterations" env:"GRIDSIM_MAX_CASCADE_ITERATIONS"`

	// Redispatch solver: absolute MW tolerance, activation threshold and
	// iteration budget.
	EpsilonPoly             float64 `yaml:"epsilon_poly" env:"GRIDSIM_EPSILON_POLY"`
	TolPoly                 float64 `yaml:"tol_poly" env:"GRIDSIM_TOL_POLY"`
	MaxRedispatchIterations int     `yaml:"max_redispatch_iterations" env:"GRIDSIM_MAX_REDISPATCH_ITERATIONS"`

	// Storage behaviour.
	InitStorageCapacity float64 `yaml:"init_storage_capacity" env:"GRIDSIM_INIT_STORAGE_CAPACITY"`
	ActivateStorageLoss bool    `yaml:"activate_storage_loss" env:"GRIDSIM_ACTIVATE_STORAGE_LOSS"`

	// Simulate calls allowed per real step; -1 is unlimited.
	MaxSimulatePerStep int `yaml:"max_simulate_per_step" env:"GRIDSIM_MAX_SIMULATE_PER_STEP"`

	// Attention (alarm) budget.
	HasAttentionBudget bool    `yaml:"has_attention_budget" env:"GRIDSIM_HAS_ATTENTION_BUDGET"`
	AttentionInitial   float64 `yaml:"attention_initial" env:"GRIDSIM_ATTENTION_INITIAL"`
	AttentionMax       float64 `yaml:"attention_max" env:"GRIDSIM_ATTENTION_MAX"`
	AttentionIncome    float64 `yaml:"attention_income" env:"GRIDSIM_ATTENTION_INCOME"`
	AlarmCost          float64 `yaml:"alarm_cost" env:"GRIDSIM_ALARM_COST"`
	AttentionCooldown  int     `yaml:"attention_cooldown" env:"GRIDSIM_ATTENTION_COOLDOWN"`

	// Opponent budget and attack shape.
	OpponentInitBudget     float64 `yaml:"opponent_init_budget" env:"GRIDSIM_OPPONENT_INIT_BUDGET"`
	OpponentMaxBudget      float64 `yaml:"opponent_max_budget" env:"GRIDSIM_OPPONENT_MAX_BUDGET"`
	OpponentBudgetPerStep  float64 `yaml:"opponent_budget_per_step" env:"GRIDSIM_OPPONENT_BUDGET_PER_STEP"`
	OpponentAttackCost     float64 `yaml:"opponent_attack_cost" env:"GRIDSIM_OPPONENT_ATTACK_COST"`
	OpponentAttackCooldown int     `yaml:"opponent_attack_cooldown" env:"GRIDSIM_OPPONENT_ATTACK_COOLDOWN"`
}

// DefaultParameters mirrors the standard game settings.
func DefaultParameters() *Parameters {
	return &Parameters{
		OverflowTimestepsAllowed: 2,
		CooldownLine:             0,
		CooldownSub:              0,
		HardOverflowThreshold:    2.0,
		SoftOverflowThreshold:    1.0,
		MaxLineStatusChanged:     1,
		MaxSubChanged:            1,
		MaxCascadeIterations:     10,
		EpsilonPoly:              1e-4,
		TolPoly:                  1e-2,
		MaxRedispatchIterations:  25,
		InitStorageCapacity:      0.5,
		ActivateStorageLoss:      true,
		MaxSimulatePerStep:       -1,
		AttentionInitial:         3,
		AttentionMax:             3,
		AttentionIncome:          1.0 / 288.0,
		AlarmCost:                1,
		AttentionCooldown:        0,
		OpponentAttackCooldown:   99999,
	}
}

// LoadParameters reads a yaml file over the defaults, then applies GRIDSIM_*
// environment-variable overrides on top.
func LoadParameters(path string) (*Parameters, error) {
	p := DefaultParameters()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("parameters %s: %w", path, err)
		}
	}
	if err := env.Parse(p); err != nil {
		return nil, fmt.Errorf("parameters environment overrides: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parameters) Validate() error {
	if p.OverflowTimestepsAllowed < 0 {
		return fmt.Errorf("parameters: nb_timestep_overflow_allowed must be >= 0")
	}
	if p.CooldownLine < 0 || p.CooldownSub < 0 {
		return fmt.Errorf("parameters: cooldowns must be >= 0")
	}
	if p.HardOverflowThreshold < p.SoftOverflowThreshold {
		return fmt.Errorf("parameters: hard overflow threshold below soft threshold")
	}
	if p.SoftOverflowThreshold <= 0 {
		return fmt.Errorf("parameters: soft overflow threshold must be > 0")
	}
	if p.MaxCascadeIterations <= 0 {
		return fmt.Errorf("parameters: max_cascade_iterations must be > 0")
	}
	if p.EpsilonPoly <= 0 || p.TolPoly <= 0 {
		return fmt.Errorf("parameters: redispatch tolerances must be > 0")
	}
	if p.MaxRedispatchIterations <= 0 {
		return fmt.Errorf("parameters: max_redispatch_iterations must be > 0")
	}
	if p.InitStorageCapacity < 0 || p.InitStorageCapacity > 1 {
		return fmt.Errorf("parameters: init_storage_capacity outside [0,1]")
	}
	if p.MaxLineStatusChanged < 0 || p.MaxSubChanged < 0 {
		return fmt.Errorf("parameters: per-step action limits must be >= 0")
	}
	return nil
}

func (p *Parameters) clone() *Parameters {
	out := *p
	return &out
}
