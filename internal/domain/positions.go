package domain

// Position is a pinned node coordinate. A nil axis means the node is not pinned.
type Position struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Pinned reports whether both coordinates are present.
func (p Position) Pinned() bool {
	return p.X != nil && p.Y != nil
}

// Positions maps node ids to their persisted coordinates.
type Positions map[string]Position
