// Package opponent implements the adversarial side of an episode: a seeded
// opponent that forces lines out, and the token-bucket budget primitive that
// gates both opponent attacks and the operator's attention (alarm) budget.
package opponent

// Budget is a token bucket with a post-spend cooldown:
// IDLE -> spend (if affordable and cooldown elapsed) -> COOLDOWN -> IDLE.
// Balance accrues Income each step, capped at Max.
type Budget struct {
	Balance float64
	Max     float64
	Income  float64
	// Cooldown in steps imposed after each successful spend.
	Cooldown int

	cooldownLeft int
}

// NewBudget starts with a full initial balance.
func NewBudget(initial, max, income float64, cooldown int) *Budget {
	return &Budget{Balance: initial, Max: max, Income: income, Cooldown: cooldown}
}

// CanSpend reports whether a spend of the given cost would be accepted now.
func (b *Budget) CanSpend(cost float64) bool {
	return b.cooldownLeft == 0 && b.Balance >= cost
}

// Spend debits the budget and starts the cooldown. Returns false (and leaves
// the budget untouched) when the spend is not affordable or still cooling down.
func (b *Budget) Spend(cost float64) bool {
	if !b.CanSpend(cost) {
		return false
	}
	b.Balance -= cost
	b.cooldownLeft = b.Cooldown
	return true
}

// Debit takes the cost without arming the cooldown. Used for attacks, where
// the cooldown must only start once the attack itself is over; pair with
// StartCooldown at that point.
func (b *Budget) Debit(cost float64) bool {
	if !b.CanSpend(cost) {
		return false
	}
	b.Balance -= cost
	return true
}

// StartCooldown arms the post-spend cooldown now.
func (b *Budget) StartCooldown() { b.cooldownLeft = b.Cooldown }

// Tick applies one step of regeneration and cooldown decay:
// balance = min(max, balance + income), cooldown floored at zero.
func (b *Budget) Tick() {
	b.Balance += b.Income
	if b.Balance > b.Max {
		b.Balance = b.Max
	}
	if b.cooldownLeft > 0 {
		b.cooldownLeft--
	}
}

// CooldownLeft is the number of steps before the next spend may be accepted.
func (b *Budget) CooldownLeft() int { return b.cooldownLeft }

// Reset restores the initial balance and clears the cooldown.
func (b *Budget) Reset(initial float64) {
	b.Balance = initial
	b.cooldownLeft = 0
}

// Clone returns an independent copy, used by the forecast sandbox.
func (b *Budget) Clone() *Budget {
	out := *b
	return &out
}
