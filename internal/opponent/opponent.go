package opponent

import (
	"fmt"
	"math/rand"

	"github.com/AlexZhaoZt/Grid2Op-Resilience/internal/grid"
)

// Attack forces one line out for Duration steps. While active the target
// stays disconnected regardless of agent intent.
type Attack struct {
	Line     int
	Duration int
}

// Opponent decides when and where to attack. The engine consults it once per
// step, only when no attack is active and the opponent budget can afford one;
// returning nil skips the step. Implementations must be deterministic for a
// fixed seed.
type Opponent interface {
	Init(s *grid.GridSchema) error
	Seed(seed int64)
	Attack(lineStatus []bool) *Attack
	Reset()
}

// Never is the default opponent: it never attacks.
type Never struct{}

func (Never) Init(*grid.GridSchema) error { return nil }
func (Never) Seed(int64)                  {}
func (Never) Attack([]bool) *Attack       { return nil }
func (Never) Reset()                      {}

// RandomLine attacks a uniformly drawn line from its attackable set, skipping
// lines already disconnected.
type RandomLine struct {
	// Lines that may be attacked; empty means every line.
	Lines []int
	// Duration of each attack in steps.
	Duration int

	candidates []int
	rng        *rand.Rand
}

func (o *RandomLine) Init(s *grid.GridSchema) error {
	if o.Duration <= 0 {
		return fmt.Errorf("opponent: attack duration must be positive, got %d", o.Duration)
	}
	if len(o.Lines) == 0 {
		o.candidates = make([]int, s.NLine)
		for i := range o.candidates {
			o.candidates[i] = i
		}
	} else {
		for _, l := range o.Lines {
			if l < 0 || l >= s.NLine {
				return fmt.Errorf("opponent: attackable line %d out of range", l)
			}
		}
		o.candidates = append([]int(nil), o.Lines...)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(0))
	}
	return nil
}

func (o *RandomLine) Seed(seed int64) {
	o.rng = rand.New(rand.NewSource(seed))
}

func (o *RandomLine) Attack(lineStatus []bool) *Attack {
	var up []int
	for _, l := range o.candidates {
		if lineStatus[l] {
			up = append(up, l)
		}
	}
	if len(up) == 0 {
		return nil
	}
	return &Attack{Line: up[o.rng.Intn(len(up))], Duration: o.Duration}
}

func (o *RandomLine) Reset() {}
