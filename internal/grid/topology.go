package grid

// TopoVect is the per-element bus assignment. Entries are BusDisconnected (-1),
// Bus1 or Bus2, indexed by the positions recorded in the schema.
type TopoVect []int

// NewTopoVect returns a topology vector with every element on bus 1.
func NewTopoVect(s *GridSchema) TopoVect {
	tv := make(TopoVect, s.DimTopo)
	for i := range tv {
		tv[i] = Bus1
	}
	return tv
}

// Clone returns an independent copy.
func (tv TopoVect) Clone() TopoVect {
	return append(TopoVect(nil), tv...)
}

// LineConnected reports whether line i is connected: both ends must sit on a
// bus. A -1 on either end forces the line disconnected.
func (tv TopoVect) LineConnected(s *GridSchema, i int) bool {
	return tv[s.LineOrPos[i]] != BusDisconnected && tv[s.LineExPos[i]] != BusDisconnected
}

// LineStatus derives the full line status vector.
func (tv TopoVect) LineStatus(s *GridSchema) []bool {
	out := make([]bool, s.NLine)
	for i := range out {
		out[i] = tv.LineConnected(s, i)
	}
	return out
}

// DisconnectLine forces both ends of line i off their bus.
func (tv TopoVect) DisconnectLine(s *GridSchema, i int) {
	tv[s.LineOrPos[i]] = BusDisconnected
	tv[s.LineExPos[i]] = BusDisconnected
}

// ConnectLine puts both ends of line i back on bus 1 if they are disconnected.
// Ends already on a bus keep their assignment.
func (tv TopoVect) ConnectLine(s *GridSchema, i int) {
	if tv[s.LineOrPos[i]] == BusDisconnected {
		tv[s.LineOrPos[i]] = Bus1
	}
	if tv[s.LineExPos[i]] == BusDisconnected {
		tv[s.LineExPos[i]] = Bus1
	}
}
