package grid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Bus assignment values used in a topology vector.
const (
	BusDisconnected = -1
	Bus1            = 1
	Bus2            = 2
)

// SchemaVersion is the current layout version produced by NewSchema.
const SchemaVersion = 2

// GridSchema is the immutable description of the grid shape: element counts,
// substation assignments and the layout of the topology vector. It is built
// once at environment construction and passed by reference to every component
// that needs it. Nothing mutates it afterwards.
type GridSchema struct {
	Version int

	NSub     int
	NLine    int
	NGen     int
	NLoad    int
	NStorage int

	SubName     []string
	LineName    []string
	GenName     []string
	LoadName    []string
	StorageName []string

	// Substation id of each element.
	LoadToSub    []int
	GenToSub     []int
	LineOrToSub  []int
	LineExToSub  []int
	StorageToSub []int

	// Position of each element inside the topology vector.
	LoadPos    []int
	GenPos     []int
	LineOrPos  []int
	LineExPos  []int
	StoragePos []int

	// Number of connectable elements per substation, and in total.
	SubInfo []int
	DimTopo int

	// Generator physics.
	GenPMin           []float64
	GenPMax           []float64
	GenMaxRampUp      []float64
	GenMaxRampDown    []float64
	GenRenewable      []bool
	GenRedispatchable []bool
	GenCostPerMW      []float64

	// Storage physics.
	StorageEMax       []float64
	StorageEMin       []float64
	StorageMaxAbsorb  []float64
	StorageMaxProd    []float64
	StorageLossMW     []float64

	// Per-line reactance (p.u.), used by DC-style backends.
	LineX []float64
}

// NewSchema derives the full schema (positions, sub_info, dim_topo) from a
// grid description. The element order inside each substation is loads, then
// generators, then line origins, then line extremities, then storage units,
// each in ascending element index. That order is part of the schema contract:
// backends and observations index their vectors with it.
func NewSchema(d *Description) (*GridSchema, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	s := &GridSchema{
		Version:  SchemaVersion,
		NSub:     len(d.Substations),
		NLine:    len(d.Lines),
		NGen:     len(d.Generators),
		NLoad:    len(d.Loads),
		NStorage: len(d.Storages),
	}

	for _, sub := range d.Substations {
		s.SubName = append(s.SubName, sub.Name)
	}
	for _, l := range d.Loads {
		s.LoadName = append(s.LoadName, l.Name)
		s.LoadToSub = append(s.LoadToSub, l.Sub)
	}
	for _, g := range d.Generators {
		s.GenName = append(s.GenName, g.Name)
		s.GenToSub = append(s.GenToSub, g.Sub)
		s.GenPMin = append(s.GenPMin, g.PMin)
		s.GenPMax = append(s.GenPMax, g.PMax)
		s.GenMaxRampUp = append(s.GenMaxRampUp, g.MaxRampUp)
		s.GenMaxRampDown = append(s.GenMaxRampDown, g.MaxRampDown)
		s.GenRenewable = append(s.GenRenewable, g.Renewable)
		s.GenRedispatchable = append(s.GenRedispatchable, !g.Renewable)
		s.GenCostPerMW = append(s.GenCostPerMW, g.CostPerMW)
	}
	for _, l := range d.Lines {
		s.LineName = append(s.LineName, l.Name)
		s.LineOrToSub = append(s.LineOrToSub, l.From)
		s.LineExToSub = append(s.LineExToSub, l.To)
		x := l.X
		if x == 0 {
			x = 0.1
		}
		s.LineX = append(s.LineX, x)
	}
	for _, st := range d.Storages {
		s.StorageName = append(s.StorageName, st.Name)
		s.StorageToSub = append(s.StorageToSub, st.Sub)
		s.StorageEMax = append(s.StorageEMax, st.EMax)
		s.StorageEMin = append(s.StorageEMin, st.EMin)
		s.StorageMaxAbsorb = append(s.StorageMaxAbsorb, st.MaxAbsorb)
		s.StorageMaxProd = append(s.StorageMaxProd, st.MaxProd)
		s.StorageLossMW = append(s.StorageLossMW, st.LossMW)
	}

	s.layoutPositions()
	return s, nil
}

// layoutPositions recomputes LoadPos..StoragePos, SubInfo and DimTopo from the
// element-to-substation assignments. Called by NewSchema and Migrate.
func (s *GridSchema) layoutPositions() {
	s.LoadPos = make([]int, s.NLoad)
	s.GenPos = make([]int, s.NGen)
	s.LineOrPos = make([]int, s.NLine)
	s.LineExPos = make([]int, s.NLine)
	s.StoragePos = make([]int, s.NStorage)
	s.SubInfo = make([]int, s.NSub)

	pos := 0
	for sub := 0; sub < s.NSub; sub++ {
		start := pos
		for i, sid := range s.LoadToSub {
			if sid == sub {
				s.LoadPos[i] = pos
				pos++
			}
		}
		for i, sid := range s.GenToSub {
			if sid == sub {
				s.GenPos[i] = pos
				pos++
			}
		}
		for i, sid := range s.LineOrToSub {
			if sid == sub {
				s.LineOrPos[i] = pos
				pos++
			}
		}
		for i, sid := range s.LineExToSub {
			if sid == sub {
				s.LineExPos[i] = pos
				pos++
			}
		}
		for i, sid := range s.StorageToSub {
			if sid == sub {
				s.StoragePos[i] = pos
				pos++
			}
		}
		s.SubInfo[sub] = pos - start
	}
	s.DimTopo = pos
}

// SubOfPos returns the substation owning a given topology-vector position,
// or -1 when the position is out of range.
func (s *GridSchema) SubOfPos(pos int) int {
	if pos < 0 || pos >= s.DimTopo {
		return -1
	}
	acc := 0
	for sub, n := range s.SubInfo {
		acc += n
		if pos < acc {
			return sub
		}
	}
	return -1
}

// Digest returns a stable fingerprint of the schema, used to detect that two
// environments (or an environment and a remote backend) talk about the same grid.
func (s *GridSchema) Digest() string {
	raw, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (d *Description) validate() error {
	if len(d.Substations) == 0 {
		return fmt.Errorf("grid description: no substations")
	}
	if len(d.Lines) == 0 {
		return fmt.Errorf("grid description: no lines")
	}
	if len(d.Generators) == 0 {
		return fmt.Errorf("grid description: no generators")
	}
	nSub := len(d.Substations)
	checkSub := func(kind, name string, sub int) error {
		if sub < 0 || sub >= nSub {
			return fmt.Errorf("grid description: %s %q references substation %d (have %d)", kind, name, sub, nSub)
		}
		return nil
	}
	for _, l := range d.Loads {
		if err := checkSub("load", l.Name, l.Sub); err != nil {
			return err
		}
	}
	for _, g := range d.Generators {
		if err := checkSub("generator", g.Name, g.Sub); err != nil {
			return err
		}
		if g.PMax < g.PMin {
			return fmt.Errorf("grid description: generator %q has pmax < pmin", g.Name)
		}
	}
	for _, l := range d.Lines {
		if err := checkSub("line", l.Name, l.From); err != nil {
			return err
		}
		if err := checkSub("line", l.Name, l.To); err != nil {
			return err
		}
	}
	for _, st := range d.Storages {
		if err := checkSub("storage", st.Name, st.Sub); err != nil {
			return err
		}
		if st.EMax < st.EMin {
			return fmt.Errorf("grid description: storage %q has emax < emin", st.Name)
		}
	}
	return nil
}
