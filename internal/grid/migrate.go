package grid

import "fmt"

// Migrate returns a copy of the schema converted to targetVersion. It never
// mutates its input: compatibility with older layouts is a new value, not an
// in-place patch of shared arrays.
//
// Version 1 is the pre-storage layout: storage units are removed and every
// position vector is re-derived without them.
func Migrate(s *GridSchema, targetVersion int) (*GridSchema, error) {
	switch targetVersion {
	case s.Version:
		return s, nil
	case 1:
		if s.Version != SchemaVersion {
			return nil, fmt.Errorf("schema migrate: cannot reach version 1 from version %d", s.Version)
		}
		out := cloneSchema(s)
		out.Version = 1
		out.NStorage = 0
		out.StorageName = nil
		out.StorageToSub = nil
		out.StorageEMax = nil
		out.StorageEMin = nil
		out.StorageMaxAbsorb = nil
		out.StorageMaxProd = nil
		out.StorageLossMW = nil
		out.layoutPositions()
		return out, nil
	default:
		return nil, fmt.Errorf("schema migrate: unknown target version %d", targetVersion)
	}
}

func cloneSchema(s *GridSchema) *GridSchema {
	out := *s
	out.SubName = append([]string(nil), s.SubName...)
	out.LineName = append([]string(nil), s.LineName...)
	out.GenName = append([]string(nil), s.GenName...)
	out.LoadName = append([]string(nil), s.LoadName...)
	out.StorageName = append([]string(nil), s.StorageName...)
	out.LoadToSub = append([]int(nil), s.LoadToSub...)
	out.GenToSub = append([]int(nil), s.GenToSub...)
	out.LineOrToSub = append([]int(nil), s.LineOrToSub...)
	out.LineExToSub = append([]int(nil), s.LineExToSub...)
	out.StorageToSub = append([]int(nil), s.StorageToSub...)
	out.GenPMin = append([]float64(nil), s.GenPMin...)
	out.GenPMax = append([]float64(nil), s.GenPMax...)
	out.GenMaxRampUp = append([]float64(nil), s.GenMaxRampUp...)
	out.GenMaxRampDown = append([]float64(nil), s.GenMaxRampDown...)
	out.GenRenewable = append([]bool(nil), s.GenRenewable...)
	out.GenRedispatchable = append([]bool(nil), s.GenRedispatchable...)
	out.GenCostPerMW = append([]float64(nil), s.GenCostPerMW...)
	out.StorageEMax = append([]float64(nil), s.StorageEMax...)
	out.StorageEMin = append([]float64(nil), s.StorageEMin...)
	out.StorageMaxAbsorb = append([]float64(nil), s.StorageMaxAbsorb...)
	out.StorageMaxProd = append([]float64(nil), s.StorageMaxProd...)
	out.StorageLossMW = append([]float64(nil), s.StorageLossMW...)
	out.LineX = append([]float64(nil), s.LineX...)
	// Position vectors are rebuilt by layoutPositions.
	return &out
}
