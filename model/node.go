package model

// Position is a 3D coordinate in metres. The z axis is unused by the
// reference scenario but carried so antenna height can be modelled.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Waypoint pins a node to a position at a given simulation offset
// (seconds since the start of the run).
type Waypoint struct {
	TimeS    float64  `json:"time_s"`
	Position Position `json:"position"`
}

// Node is a physical radio terminal: an access point or a station.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	// Position is the node's current location. For waypoint-driven
	// nodes it is rewritten by the motion model on every tick.
	Position Position `json:"position"`

	// Waypoints, when non-empty, drive the node along a piecewise
	// linear trajectory. An empty list means the node never moves.
	Waypoints []Waypoint `json:"waypoints,omitempty"`
}
