package transaction

// mapRange records one replaced region of a step.
type mapRange struct {
	start   int
	oldSize int
	newSize int
}

// StepMap translates positions in the document before a step to
// positions in the document after it.
type StepMap struct {
	ranges []mapRange
}

// NewStepMap builds a step map for a single replaced region.
func NewStepMap(start, oldSize, newSize int) StepMap {
	return StepMap{ranges: []mapRange{{start: start, oldSize: oldSize, newSize: newSize}}}
}

// IdentityMap is the map of a step that moves no positions.
var IdentityMap = StepMap{}

// Map translates a position. assoc determines which side a position at a
// replacement boundary sticks to: negative keeps it before inserted
// content, positive moves it after.
func (m StepMap) Map(pos, assoc int) int {
	diff := 0
	for _, r := range m.ranges {
		if pos < r.start {
			break
		}
		oldEnd := r.start + r.oldSize
		if pos == r.start {
			if assoc > 0 && r.oldSize == 0 {
				return r.start + diff + r.newSize
			}
			return r.start + diff
		}
		if pos < oldEnd {
			// Strictly inside the replaced region: collapse to a side.
			if assoc < 0 {
				return r.start + diff
			}
			return r.start + diff + r.newSize
		}
		if pos == oldEnd {
			return r.start + diff + r.newSize
		}
		diff += r.newSize - r.oldSize
	}
	return pos + diff
}

// Mapping composes the step maps of a transaction in order.
type Mapping struct {
	maps []StepMap
}

// Append adds a step map to the composition.
func (m *Mapping) Append(sm StepMap) {
	m.maps = append(m.maps, sm)
}

// Map translates a position through every step map in order.
func (m Mapping) Map(pos, assoc int) int {
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// Len returns the number of composed step maps.
func (m Mapping) Len() int {
	return len(m.maps)
}
