package domain

// Midpoint position assignment. Inserting between two siblings takes their
// arithmetic mean, so no neighbor ever needs renumbering. Repeated insertion
// between the same pair converges toward the float64 precision floor; that
// drift is accepted, observable position values are never normalized.

// PositionBefore returns the position for an item inserted before the current
// first item.
func PositionBefore(first float64) float64 {
	return first / 2
}

// PositionAfter returns the position for an item inserted after the current
// last item.
func PositionAfter(last float64) float64 {
	return last + 1
}

// PositionBetween returns the position for an item inserted between two
// adjacent items.
func PositionBetween(before, after float64) float64 {
	return (before + after) / 2
}

// PositionAt picks an insertion position within an ordered sibling list of
// positions: empty list yields 1, index 0 inserts before the head, an index
// past the end appends, anything else lands between neighbors.
func PositionAt(positions []float64, index int) float64 {
	if len(positions) == 0 {
		return 1
	}
	if index <= 0 {
		return PositionBefore(positions[0])
	}
	if index >= len(positions) {
		return PositionAfter(positions[len(positions)-1])
	}
	return PositionBetween(positions[index-1], positions[index])
}
